package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// SettingsStore reads and writes tenant settings records in DynamoDB.
// The table is keyed by tenantId alone; one record per tenant.
type SettingsStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewSettingsStore builds a store backed by the provided DynamoDB client.
func NewSettingsStore(client dynamoAPI, tableName string, logger *logging.Logger) *SettingsStore {
	if client == nil {
		panic("clinic: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("clinic: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SettingsStore{client: client, tableName: tableName, logger: logger}
}

// Load fetches the settings record for a tenant, already merged with the
// defaults. A missing record yields the defaults with found=false.
func (s *SettingsStore) Load(ctx context.Context, tenantID string) (Settings, bool, error) {
	if tenantID == "" {
		return Settings{}, false, errors.New("clinic: tenantID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"tenantId": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return Settings{}, false, fmt.Errorf("clinic: failed to fetch settings for %s: %w", tenantID, err)
	}
	if out.Item == nil {
		return DefaultSettings(), false, nil
	}

	var record settingsRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return Settings{}, false, fmt.Errorf("clinic: failed to decode settings for %s: %w", tenantID, err)
	}
	return record.merge(), true, nil
}

// Save persists a full settings record for a tenant, replacing any
// previous one.
func (s *SettingsStore) Save(ctx context.Context, tenantID string, settings Settings) error {
	if tenantID == "" {
		return errors.New("clinic: tenantID required")
	}
	record := settingsRecord{
		TenantID:                     tenantID,
		CustomerLabel:                settings.CustomerLabel,
		AutoConfirm:                  aws.Bool(settings.AutoConfirm),
		Reminder24hEnabled:           aws.Bool(settings.Reminder24hEnabled),
		Reminder1hEnabled:            aws.Bool(settings.Reminder1hEnabled),
		ChatBookingEnabled:           aws.Bool(settings.ChatBookingEnabled),
		ChatBookingKnownPatientsOnly: aws.Bool(settings.ChatBookingKnownPatientsOnly),
		ChatBookingServiceIDs:        settings.ChatBookingServiceIDs,
		UpdatedAt:                    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(settings.BusinessHours.Days) > 0 || len(settings.BusinessHours.Breaks) > 0 || len(settings.BusinessHours.Blackouts) > 0 {
		hours := settings.BusinessHours
		record.BusinessHours = &hours
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("clinic: failed to marshal settings for %s: %w", tenantID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("clinic: failed to persist settings for %s: %w", tenantID, err)
	}
	return nil
}
