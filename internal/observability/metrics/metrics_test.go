package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNilReceiversAreSafe(t *testing.T) {
	var chat *ChatMetrics
	var reminders *ReminderMetrics
	var cache *CacheMetrics

	assert.NotPanics(t, func() {
		chat.ObserveInbound("initial", "ok")
		chat.ObserveBookingCreated("clinic-1")
		chat.ObserveProcessLatency("menu", 0.1)
		reminders.ObserveSweep()
		reminders.ObserveOutcome("sent", 2)
		cache.ObserveOp("get", "service", "hit")
	})
}

func TestRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	chat := NewChatMetrics(reg)
	reminders := NewReminderMetrics(reg)
	cache := NewCacheMetrics(reg)

	chat.ObserveInbound("initial", "ok")
	reminders.ObserveSweep()
	reminders.ObserveOutcome("skipped", 0)
	cache.ObserveOp("set", "direct", "ok")

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
