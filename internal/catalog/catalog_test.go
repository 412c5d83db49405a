package catalog

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gpneto/Clinica360-sub004/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	queryOut *dynamodb.QueryOutput
	getOut   *dynamodb.GetItemOutput
	err      error
}

func (f *fakeDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, f.err
	}
	return f.getOut, f.err
}

func (f *fakeDynamo) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.queryOut == nil {
		return &dynamodb.QueryOutput{}, f.err
	}
	return f.queryOut, f.err
}

func marshalAll[T any](t *testing.T, values []T) []map[string]types.AttributeValue {
	t.Helper()
	items := make([]map[string]types.AttributeValue, len(values))
	for i, v := range values {
		item, err := attributevalue.MarshalMap(v)
		require.NoError(t, err)
		items[i] = item
	}
	return items
}

func TestListActiveProfessionalsSorted(t *testing.T) {
	items := marshalAll(t, []Professional{
		{TenantID: "t1", ID: "p2", Name: "Zilda", Active: true},
		{TenantID: "t1", ID: "p1", Name: "Ana", Active: true},
	})
	store := NewStore(&fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: items}}, "professionals", "services", nil)

	result, err := store.ListActiveProfessionals(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Ana", result[0].Name)
	assert.Equal(t, "Zilda", result[1].Name)
}

func TestListActiveServicesRestriction(t *testing.T) {
	items := marshalAll(t, []Service{
		{TenantID: "t1", ID: "s1", Name: "Limpeza", Active: true, DurationMin: 45, PriceCents: 12000},
		{TenantID: "t1", ID: "s2", Name: "Avaliação", Active: true, DurationMin: 30},
		{TenantID: "t1", ID: "s3", Name: "Clareamento", Active: true},
	})
	store := NewStore(&fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: items}}, "professionals", "services", nil)
	ctx := context.Background()

	all, err := store.ListActiveServices(ctx, "t1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	restricted, err := store.ListActiveServices(ctx, "t1", []string{"s1", "s3"})
	require.NoError(t, err)
	require.Len(t, restricted, 2)
	assert.Equal(t, "Clareamento", restricted[0].Name)
	assert.Equal(t, "Limpeza", restricted[1].Name)
}

func TestServiceDurationDefault(t *testing.T) {
	assert.Equal(t, 60, Service{}.Duration())
	assert.Equal(t, 45, Service{DurationMin: 45}.Duration())
}

func TestProfessionalWorkWindow(t *testing.T) {
	assert.Equal(t, schedule.DefaultWorkWindow(), Professional{}.WorkWindow())

	custom := Professional{Weekdays: []int{2, 4}, Open: "10:00", Close: "16:00"}
	w := custom.WorkWindow()
	assert.Equal(t, []int{2, 4}, w.Weekdays)
	assert.Equal(t, "10:00", w.Open)

	hoursOnly := Professional{Open: "07:00", Close: "12:00"}.WorkWindow()
	assert.Equal(t, schedule.DefaultWorkWindow().Weekdays, hoursOnly.Weekdays)
	assert.Equal(t, "07:00", hoursOnly.Open)
}

func TestGetServiceAbsent(t *testing.T) {
	store := NewStore(&fakeDynamo{}, "professionals", "services", nil)
	svc, err := store.GetService(context.Background(), "t1", "missing")
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestGetProfessional(t *testing.T) {
	item, err := attributevalue.MarshalMap(Professional{TenantID: "t1", ID: "p1", Name: "Ana", Active: true})
	require.NoError(t, err)
	store := NewStore(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item}}, "professionals", "services", nil)

	p, err := store.GetProfessional(context.Background(), "t1", "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ana", p.Name)
}
