package bookings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gpneto/Clinica360-sub004/internal/schedule"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// lockStaleness is how long a reminder lock shields a booking from other
// sweeps before it is considered abandoned.
const lockStaleness = 2 * time.Minute

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Repository persists bookings in a DynamoDB table keyed (tenantId, id).
type Repository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewRepository builds a repository backed by the provided DynamoDB client.
func NewRepository(client dynamoAPI, tableName string, logger *logging.Logger) *Repository {
	if client == nil {
		panic("bookings: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("bookings: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{client: client, tableName: tableName, logger: logger}
}

func bookingKey(tenantID, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenantId": &types.AttributeValueMemberS{Value: tenantID},
		"id":       &types.AttributeValueMemberS{Value: id},
	}
}

func epoch(t time.Time) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}

// Create inserts a new booking after validating it.
func (r *Repository) Create(ctx context.Context, booking *Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	item, err := attributevalue.MarshalMap(booking)
	if err != nil {
		return fmt.Errorf("bookings: failed to marshal booking: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("bookings: failed to persist booking %s: %w", booking.ID, err)
	}
	return nil
}

// Get fetches one booking.
func (r *Repository) Get(ctx context.Context, tenantID, id string) (*Booking, error) {
	if tenantID == "" || id == "" {
		return nil, errors.New("bookings: tenantID and id required")
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       bookingKey(tenantID, id),
	})
	if err != nil {
		return nil, fmt.Errorf("bookings: failed to fetch booking %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var booking Booking
	if err := attributevalue.UnmarshalMap(out.Item, &booking); err != nil {
		return nil, fmt.Errorf("bookings: failed to decode booking %s: %w", id, err)
	}
	return &booking, nil
}

// ListBusy returns the occupied intervals for one professional: every
// booking in a slot-holding status, regardless of date. Implements
// schedule.BusyLister.
func (r *Repository) ListBusy(ctx context.Context, tenantID, professionalID string) ([]schedule.Range, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("tenantId = :tenant"),
		FilterExpression:       aws.String("professionalId = :professional AND #status IN (:scheduled, :confirmed, :block)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant":       &types.AttributeValueMemberS{Value: tenantID},
			":professional": &types.AttributeValueMemberS{Value: professionalID},
			":scheduled":    &types.AttributeValueMemberS{Value: string(StatusScheduled)},
			":confirmed":    &types.AttributeValueMemberS{Value: string(StatusConfirmed)},
			":block":        &types.AttributeValueMemberS{Value: string(StatusBlock)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bookings: failed to list busy intervals: %w", err)
	}

	ranges := make([]schedule.Range, 0, len(out.Items))
	for _, item := range out.Items {
		var booking Booking
		if err := attributevalue.UnmarshalMap(item, &booking); err != nil {
			r.logger.Warn("skipping undecodable booking in busy listing", "tenant_id", tenantID, "error", err)
			continue
		}
		if booking.Start.IsZero() || !booking.End.After(booking.Start) {
			continue
		}
		ranges = append(ranges, schedule.Range{Start: booking.Start, End: booking.End})
	}
	return ranges, nil
}

// ListUpcomingByPatient returns a patient's future scheduled/confirmed
// bookings ordered by start ascending, capped at limit.
func (r *Repository) ListUpcomingByPatient(ctx context.Context, tenantID, patientID string, now time.Time, limit int) ([]Booking, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("tenantId = :tenant"),
		FilterExpression:       aws.String("patientId = :patient AND #start > :now AND #status IN (:scheduled, :confirmed)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
			"#start":  "start",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant":    &types.AttributeValueMemberS{Value: tenantID},
			":patient":   &types.AttributeValueMemberS{Value: patientID},
			":now":       epoch(now),
			":scheduled": &types.AttributeValueMemberS{Value: string(StatusScheduled)},
			":confirmed": &types.AttributeValueMemberS{Value: string(StatusConfirmed)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bookings: failed to list upcoming bookings: %w", err)
	}

	var result []Booking
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &result); err != nil {
		return nil, fmt.Errorf("bookings: failed to decode upcoming bookings: %w", err)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListReminderCandidates scans all tenants for bookings with notified=false
// whose start falls in [now-30min, now+28h].
func (r *Repository) ListReminderCandidates(ctx context.Context, now time.Time) ([]Booking, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("notified = :false AND #start BETWEEN :from AND :to"),
		ExpressionAttributeNames: map[string]string{
			"#start": "start",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":from":  epoch(now.Add(-30 * time.Minute)),
			":to":    epoch(now.Add(28 * time.Hour)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bookings: failed to scan reminder candidates: %w", err)
	}

	var result []Booking
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &result); err != nil {
		return nil, fmt.Errorf("bookings: failed to decode reminder candidates: %w", err)
	}
	return result, nil
}

// Reserve is the atomic reminder reservation: one conditional update that
// refuses when the kind's sent-flag is already true or any lock younger than
// two minutes exists, and otherwise stamps lockedAt/lockedType. A refused
// condition surfaces as ErrReservationLost.
func (r *Repository) Reserve(ctx context.Context, tenantID, id string, kind ReminderKind, now time.Time) error {
	sentAttr := sentFlagName(kind)
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              bookingKey(tenantID, id),
		UpdateExpression: aws.String("SET lockedAt = :now, lockedType = :kind"),
		ConditionExpression: aws.String(
			"attribute_exists(id)" +
				" AND (attribute_not_exists(#sent) OR #sent = :false)" +
				" AND (attribute_not_exists(lockedAt) OR lockedAt <= :stale)"),
		ExpressionAttributeNames: map[string]string{
			"#sent": sentAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   epoch(now),
			":kind":  &types.AttributeValueMemberS{Value: string(kind)},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":stale": epoch(now.Add(-lockStaleness)),
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrReservationLost
		}
		return fmt.Errorf("bookings: failed to reserve reminder %s/%s: %w", id, kind, err)
	}
	return nil
}

// MarkSent clears the lock and sets the kind's sent-flag. When allDone is
// true the booking is also flagged notified; when false, notified is
// explicitly reset so the record resurfaces for the remaining kind.
func (r *Repository) MarkSent(ctx context.Context, tenantID, id string, kind ReminderKind, allDone bool, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       bookingKey(tenantID, id),
		UpdateExpression: aws.String(
			"SET #sent = :true, #sentAt = :now, notified = :done, notifiedAt = :notifiedAt REMOVE lockedAt, lockedType"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#sent":   sentFlagName(kind),
			"#sentAt": sentAtName(kind),
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":       &types.AttributeValueMemberBOOL{Value: true},
			":now":        epoch(now),
			":done":       &types.AttributeValueMemberBOOL{Value: allDone},
			":notifiedAt": notifiedAtValue(allDone, now),
		},
	})
	if err != nil {
		return fmt.Errorf("bookings: failed to mark reminder sent %s/%s: %w", id, kind, err)
	}
	return nil
}

// MarkSkipped flags the booking notified with a reason, without sending
// anything. Used when the tenant disabled every required reminder kind or
// when both kinds already went out.
func (r *Repository) MarkSkipped(ctx context.Context, tenantID, id, reason string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       bookingKey(tenantID, id),
		UpdateExpression: aws.String(
			"SET notified = :true, notifiedAt = :now, skipReason = :reason REMOVE lockedAt, lockedType"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":   &types.AttributeValueMemberBOOL{Value: true},
			":now":    epoch(now),
			":reason": &types.AttributeValueMemberS{Value: reason},
		},
	})
	if err != nil {
		return fmt.Errorf("bookings: failed to mark reminder skipped %s: %w", id, err)
	}
	return nil
}

// ReleaseLock drops the lock after a failed send, records the error and
// bumps the retry counter. Sent-flags stay untouched so the next sweep
// retries.
func (r *Repository) ReleaseLock(ctx context.Context, tenantID, id, sendError string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       bookingKey(tenantID, id),
		UpdateExpression: aws.String(
			"SET notificationError = :err ADD retryCount :one REMOVE lockedAt, lockedType"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":err": &types.AttributeValueMemberS{Value: sendError},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("bookings: failed to release reminder lock %s: %w", id, err)
	}
	return nil
}

// Delete removes a booking record outright.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       bookingKey(tenantID, id),
	})
	if err != nil {
		return fmt.Errorf("bookings: failed to delete booking %s: %w", id, err)
	}
	return nil
}

func sentFlagName(kind ReminderKind) string {
	if kind == Reminder24h {
		return "reminder24hSent"
	}
	return "reminder1hSent"
}

func sentAtName(kind ReminderKind) string {
	if kind == Reminder24h {
		return "reminder24hSentAt"
	}
	return "reminder1hSentAt"
}

func notifiedAtValue(allDone bool, now time.Time) types.AttributeValue {
	if allDone {
		return epoch(now)
	}
	return &types.AttributeValueMemberNULL{Value: true}
}
