package clinic

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut *dynamodb.GetItemOutput
	getErr error
	putIn  *dynamodb.PutItemInput
	putErr error
}

func (f *fakeDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func TestLoadMissingRecordYieldsDefaults(t *testing.T) {
	store := NewSettingsStore(&fakeDynamo{getOut: &dynamodb.GetItemOutput{}}, "tenant_settings", nil)

	settings, found, err := store.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadMergesStoredRecord(t *testing.T) {
	item, err := attributevalue.MarshalMap(map[string]any{
		"tenantId":           "t1",
		"chatBookingEnabled": true,
		"reminder1hEnabled":  false,
	})
	require.NoError(t, err)
	store := NewSettingsStore(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item}}, "tenant_settings", nil)

	settings, found, err := store.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, settings.ChatBookingEnabled)
	assert.False(t, settings.Reminder1hEnabled)
	assert.True(t, settings.Reminder24hEnabled)
}

func TestLoadPropagatesClientError(t *testing.T) {
	store := NewSettingsStore(&fakeDynamo{getErr: errors.New("throttled")}, "tenant_settings", nil)
	_, _, err := store.Load(context.Background(), "t1")
	assert.Error(t, err)
}

func TestLoadRequiresTenantID(t *testing.T) {
	store := NewSettingsStore(&fakeDynamo{}, "tenant_settings", nil)
	_, _, err := store.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestSavePersistsFullRecord(t *testing.T) {
	client := &fakeDynamo{}
	store := NewSettingsStore(client, "tenant_settings", nil)

	settings := DefaultSettings()
	settings.ChatBookingEnabled = true
	settings.BusinessHours = BusinessHours{
		Days: []DayHours{{Weekday: 1, Open: "08:00", Close: "18:00", Active: true}},
	}
	require.NoError(t, store.Save(context.Background(), "t1", settings))

	require.NotNil(t, client.putIn)
	assert.Equal(t, "tenant_settings", *client.putIn.TableName)

	var record settingsRecord
	require.NoError(t, attributevalue.UnmarshalMap(client.putIn.Item, &record))
	assert.Equal(t, "t1", record.TenantID)
	require.NotNil(t, record.ChatBookingEnabled)
	assert.True(t, *record.ChatBookingEnabled)
	require.NotNil(t, record.BusinessHours)
	assert.Len(t, record.BusinessHours.Days, 1)
	assert.NotEmpty(t, record.UpdatedAt)
}

func TestNewSettingsStorePanics(t *testing.T) {
	assert.Panics(t, func() { NewSettingsStore(nil, "t", nil) })
	assert.Panics(t, func() { NewSettingsStore(&fakeDynamo{}, "", nil) })
}
