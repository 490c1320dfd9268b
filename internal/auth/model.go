package auth

// Role controls what a clinic user may do once authenticated.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDentist Role = "dentist"
	RoleStaff   Role = "staff"
)

// ValidRole reports whether r is one of the recognized clinic roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDentist, RoleStaff:
		return true
	}
	return false
}

// User is a clinic account persisted in the users table. Email is the
// partition key; Phone is unique through the phone-index GSI.
type User struct {
	ID           string `dynamodbav:"id" json:"id"`
	Email        string `dynamodbav:"email" json:"email"`
	Phone        string `dynamodbav:"phone" json:"phone"`
	FirstName    string `dynamodbav:"firstName" json:"first_name"`
	LastName     string `dynamodbav:"lastName" json:"last_name"`
	PasswordHash string `dynamodbav:"passwordHash" json:"-"`
	Role         Role   `dynamodbav:"role" json:"role"`
	CreatedAt    string `dynamodbav:"createdAt" json:"created_at"`
}
