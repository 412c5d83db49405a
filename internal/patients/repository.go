package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Patient is a minimal patient identity, enough to attach bookings and
// reminders to a chat participant.
type Patient struct {
	TenantID         string `dynamodbav:"tenantId"`
	ID               string `dynamodbav:"id"`
	Name             string `dynamodbav:"name"`
	PhoneE164        string `dynamodbav:"phoneE164"`
	NotifyPreference string `dynamodbav:"notifyPreference,omitempty"`
	CreatedViaChat   bool   `dynamodbav:"createdViaChat,omitempty"`
	CreatedAt        string `dynamodbav:"createdAt,omitempty"`
	UpdatedAt        string `dynamodbav:"updatedAt,omitempty"`
}

// Repository persists patients in a DynamoDB table keyed (tenantId, id).
type Repository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewRepository builds a repository backed by the provided DynamoDB client.
func NewRepository(client dynamoAPI, tableName string, logger *logging.Logger) *Repository {
	if client == nil {
		panic("patients: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("patients: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{client: client, tableName: tableName, logger: logger}
}

// FindByPhone resolves a patient by phone-equivalent identifier. Returns
// (nil, nil) when no patient matches.
func (r *Repository) FindByPhone(ctx context.Context, tenantID, phone string) (*Patient, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, nil
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("tenantId = :tenant"),
		FilterExpression:       aws.String("phoneE164 = :phone"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":phone":  &types.AttributeValueMemberS{Value: normalized},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("patients: failed to find patient by phone: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var patient Patient
	if err := attributevalue.UnmarshalMap(out.Items[0], &patient); err != nil {
		return nil, fmt.Errorf("patients: failed to decode patient: %w", err)
	}
	return &patient, nil
}

// Get fetches one patient; (nil, nil) when absent.
func (r *Repository) Get(ctx context.Context, tenantID, id string) (*Patient, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"tenantId": &types.AttributeValueMemberS{Value: tenantID},
			"id":       &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("patients: failed to fetch patient %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var patient Patient
	if err := attributevalue.UnmarshalMap(out.Item, &patient); err != nil {
		return nil, fmt.Errorf("patients: failed to decode patient %s: %w", id, err)
	}
	return &patient, nil
}

// Create inserts a new patient, assigning an id and normalizing the phone.
func (r *Repository) Create(ctx context.Context, patient *Patient) error {
	if patient == nil {
		return errors.New("patients: patient cannot be nil")
	}
	if patient.TenantID == "" {
		return errors.New("patients: tenantID required")
	}
	if len(patient.Name) < 2 {
		return errors.New("patients: name must be at least 2 characters")
	}
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	patient.PhoneE164 = NormalizePhone(patient.PhoneE164)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	patient.CreatedAt = now
	patient.UpdatedAt = now

	item, err := attributevalue.MarshalMap(patient)
	if err != nil {
		return fmt.Errorf("patients: failed to marshal patient: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("patients: failed to persist patient: %w", err)
	}
	return nil
}
