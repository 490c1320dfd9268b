package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

const phoneIndex = "phone-index"

var (
	// ErrEmailTaken indicates another account already owns the email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrPhoneTaken indicates another account already owns the phone number.
	ErrPhoneTaken = errors.New("auth: phone number already registered")
	// ErrUserNotFound indicates no account exists for the given email.
	ErrUserNotFound = errors.New("auth: user not found")
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store persists clinic users to DynamoDB.
type Store struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewStore builds a user store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, tableName string, logger *logging.Logger) *Store {
	if client == nil {
		panic("auth: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("auth: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Store{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// CreateUser inserts a new account. The conditional put makes the email
// unique; the phone number is checked against the GSI first, so a race can
// still slip a duplicate phone through, which login tolerates.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if user == nil {
		return errors.New("auth: user cannot be nil")
	}

	if user.Phone != "" {
		taken, err := s.phoneExists(ctx, user.Phone)
		if err != nil {
			return err
		}
		if taken {
			return ErrPhoneTaken
		}
	}

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("auth: failed to marshal user: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrEmailTaken
		}
		return fmt.Errorf("auth: failed to persist user: %w", err)
	}
	return nil
}

// GetByEmail fetches an account by its email address.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, errors.New("auth: email required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("auth: failed to fetch user: %w", err)
	}
	if out.Item == nil {
		return nil, ErrUserNotFound
	}

	var user User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("auth: failed to decode user: %w", err)
	}
	return &user, nil
}

func (s *Store) phoneExists(ctx context.Context, phone string) (bool, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(phoneIndex),
		KeyConditionExpression: aws.String("phone = :phone"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":phone": &types.AttributeValueMemberS{Value: phone},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("auth: failed to check phone uniqueness: %w", err)
	}
	return out.Count > 0, nil
}
