package clinic

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "paciente", s.CustomerLabel)
	assert.True(t, s.AutoConfirm)
	assert.True(t, s.Reminder24hEnabled)
	assert.True(t, s.Reminder1hEnabled)
	assert.False(t, s.ChatBookingEnabled)
	assert.False(t, s.ChatBookingKnownPatientsOnly)
}

func TestRecordMergeAbsentFieldsKeepDefaults(t *testing.T) {
	record := settingsRecord{TenantID: "t1"}
	s := record.merge()
	assert.Equal(t, DefaultSettings(), s)
}

func TestRecordMergeExplicitFalseWins(t *testing.T) {
	record := settingsRecord{
		TenantID:           "t1",
		Reminder24hEnabled: aws.Bool(false),
		ChatBookingEnabled: aws.Bool(true),
		CustomerLabel:      "cliente",
	}
	s := record.merge()
	assert.False(t, s.Reminder24hEnabled)
	assert.True(t, s.Reminder1hEnabled, "untouched toggle keeps default")
	assert.True(t, s.ChatBookingEnabled)
	assert.Equal(t, "cliente", s.CustomerLabel)
}

func TestServiceAllowedForChat(t *testing.T) {
	open := Settings{}
	assert.True(t, open.ServiceAllowedForChat("any"), "empty restriction allows all")

	restricted := Settings{ChatBookingServiceIDs: []string{"svc-1", "svc-2"}}
	assert.True(t, restricted.ServiceAllowedForChat("svc-2"))
	assert.False(t, restricted.ServiceAllowedForChat("svc-3"))
}
