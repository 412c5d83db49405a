package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// Conversation is the per-chat booking context, one record per chat identity
// per tenant. Selection fields fill in as the flow advances and are cleared
// on every reset; the eligibility fields survive resets so settings and
// patient lookups are not repeated within a session.
type Conversation struct {
	TenantID string `dynamodbav:"tenantId"`
	ChatID   string `dynamodbav:"chatId"`
	State    State  `dynamodbav:"state"`

	ProfessionalID string   `dynamodbav:"professionalId,omitempty"`
	ServiceIDs     []string `dynamodbav:"serviceIds,omitempty"`
	SelectedDate   string   `dynamodbav:"selectedDate,omitempty"` // YYYY-MM-DD
	SelectedTime   string   `dynamodbav:"selectedTime,omitempty"` // HH:MM
	PatientID      string   `dynamodbav:"patientId,omitempty"`
	PatientName    string   `dynamodbav:"patientName,omitempty"`

	BookingEnabled *bool `dynamodbav:"bookingEnabled,omitempty"`
	CanBook        *bool `dynamodbav:"canBook,omitempty"`

	CreatedAt time.Time `dynamodbav:"createdAt,unixtime"`
	UpdatedAt time.Time `dynamodbav:"updatedAt,unixtime"`
}

// Reset returns the conversation to the initial state, clearing every
// selection but keeping the memoized eligibility.
func (c *Conversation) Reset() {
	c.State = StateInitial
	c.ProfessionalID = ""
	c.ServiceIDs = nil
	c.SelectedDate = ""
	c.SelectedTime = ""
	c.PatientName = ""
}

// HasBookingSelections reports whether every field needed to finalize a
// booking is present.
func (c *Conversation) HasBookingSelections() bool {
	return c.ProfessionalID != "" && len(c.ServiceIDs) > 0 &&
		c.SelectedDate != "" && c.SelectedTime != ""
}

// ContextStore persists conversations in a DynamoDB table keyed
// (tenantId, chatId).
type ContextStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// NewContextStore builds a store backed by the provided DynamoDB client.
func NewContextStore(client dynamoAPI, tableName string, logger *logging.Logger) *ContextStore {
	if client == nil {
		panic("chat: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("chat: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ContextStore{client: client, tableName: tableName, logger: logger}
}

// Load returns the conversation for a chat, creating it lazily in the
// initial state on first contact.
func (s *ContextStore) Load(ctx context.Context, tenantID, chatID string, now time.Time) (*Conversation, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"tenantId": &types.AttributeValueMemberS{Value: tenantID},
			"chatId":   &types.AttributeValueMemberS{Value: chatID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat: failed to fetch conversation %s: %w", chatID, err)
	}
	if out.Item == nil {
		conversation := &Conversation{
			TenantID:  tenantID,
			ChatID:    chatID,
			State:     StateInitial,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Save(ctx, conversation, now); err != nil {
			return nil, err
		}
		return conversation, nil
	}

	var conversation Conversation
	if err := attributevalue.UnmarshalMap(out.Item, &conversation); err != nil {
		return nil, fmt.Errorf("chat: failed to decode conversation %s: %w", chatID, err)
	}
	if !conversation.State.Valid() {
		s.logger.Warn("resetting conversation with unknown state",
			"tenant_id", tenantID, "chat_id", chatID, "state", string(conversation.State))
		conversation.Reset()
	}
	return &conversation, nil
}

// Save writes the whole conversation record, stamping updatedAt.
func (s *ContextStore) Save(ctx context.Context, conversation *Conversation, now time.Time) error {
	conversation.UpdatedAt = now
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	item, err := attributevalue.MarshalMap(conversation)
	if err != nil {
		return fmt.Errorf("chat: failed to marshal conversation: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("chat: failed to persist conversation: %w", err)
	}
	return nil
}
