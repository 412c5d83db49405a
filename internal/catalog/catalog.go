// Package catalog serves the tenant's professionals and services, the two
// entity sets the chat booking flow lists and matches against.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gpneto/Clinica360-sub004/internal/schedule"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// defaultServiceDuration applies when a service record has no duration.
const defaultServiceDuration = 60

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Professional is a bookable staff member.
type Professional struct {
	TenantID string `dynamodbav:"tenantId"`
	ID       string `dynamodbav:"id"`
	Name     string `dynamodbav:"name"`
	Active   bool   `dynamodbav:"active"`
	Weekdays []int  `dynamodbav:"weekdays,omitempty"`
	Open     string `dynamodbav:"open,omitempty"`
	Close    string `dynamodbav:"close,omitempty"`
}

// WorkWindow maps the professional's stored window onto the availability
// engine's input; an unconfigured professional gets the engine's default.
func (p Professional) WorkWindow() schedule.WorkWindow {
	if len(p.Weekdays) == 0 && p.Open == "" && p.Close == "" {
		return schedule.DefaultWorkWindow()
	}
	w := schedule.WorkWindow{Weekdays: p.Weekdays, Open: p.Open, Close: p.Close}
	if len(w.Weekdays) == 0 {
		w.Weekdays = schedule.DefaultWorkWindow().Weekdays
	}
	return w
}

// Service is one offerable treatment with price and duration.
type Service struct {
	TenantID    string `dynamodbav:"tenantId"`
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	DurationMin int    `dynamodbav:"durationMin,omitempty"`
	PriceCents  int64  `dynamodbav:"priceCents,omitempty"`
	Active      bool   `dynamodbav:"active"`
}

// Duration returns the service duration in minutes, defaulted when unset.
func (s Service) Duration() int {
	if s.DurationMin <= 0 {
		return defaultServiceDuration
	}
	return s.DurationMin
}

// Store reads professionals and services from their DynamoDB tables, both
// keyed (tenantId, id).
type Store struct {
	client             dynamoAPI
	professionalsTable string
	servicesTable      string
	logger             *logging.Logger
}

// NewStore builds a catalog store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, professionalsTable, servicesTable string, logger *logging.Logger) *Store {
	if client == nil {
		panic("catalog: dynamodb client cannot be nil")
	}
	if professionalsTable == "" || servicesTable == "" {
		panic("catalog: table names cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:             client,
		professionalsTable: professionalsTable,
		servicesTable:      servicesTable,
		logger:             logger,
	}
}

func (s *Store) listActive(ctx context.Context, table, tenantID string) ([]map[string]types.AttributeValue, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("tenantId = :tenant"),
		FilterExpression:       aws.String("active = :true"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":true":   &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListActiveProfessionals returns the tenant's active professionals sorted
// by name, the order the chat flow lists them in.
func (s *Store) ListActiveProfessionals(ctx context.Context, tenantID string) ([]Professional, error) {
	items, err := s.listActive(ctx, s.professionalsTable, tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list professionals: %w", err)
	}
	var result []Professional
	if err := attributevalue.UnmarshalListOfMaps(items, &result); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode professionals: %w", err)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ListActiveServices returns the tenant's active services sorted by name.
// A non-empty allowedIDs restricts the result to those ids.
func (s *Store) ListActiveServices(ctx context.Context, tenantID string, allowedIDs []string) ([]Service, error) {
	items, err := s.listActive(ctx, s.servicesTable, tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list services: %w", err)
	}
	var all []Service
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode services: %w", err)
	}

	result := all
	if len(allowedIDs) > 0 {
		allowed := make(map[string]struct{}, len(allowedIDs))
		for _, id := range allowedIDs {
			allowed[id] = struct{}{}
		}
		result = result[:0]
		for _, svc := range all {
			if _, ok := allowed[svc.ID]; ok {
				result = append(result, svc)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// GetProfessional fetches one professional; (nil, nil) when absent.
func (s *Store) GetProfessional(ctx context.Context, tenantID, id string) (*Professional, error) {
	item, err := s.getItem(ctx, s.professionalsTable, tenantID, id)
	if err != nil || item == nil {
		return nil, err
	}
	var p Professional
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode professional %s: %w", id, err)
	}
	return &p, nil
}

// GetService fetches one service; (nil, nil) when absent.
func (s *Store) GetService(ctx context.Context, tenantID, id string) (*Service, error) {
	item, err := s.getItem(ctx, s.servicesTable, tenantID, id)
	if err != nil || item == nil {
		return nil, err
	}
	var svc Service
	if err := attributevalue.UnmarshalMap(item, &svc); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode service %s: %w", id, err)
	}
	return &svc, nil
}

func (s *Store) getItem(ctx context.Context, table, tenantID, id string) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"tenantId": &types.AttributeValueMemberS{Value: tenantID},
			"id":       &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to fetch from %s: %w", table, err)
	}
	return out.Item, nil
}
