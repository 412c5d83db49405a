package reminders

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gpneto/Clinica360-sub004/internal/bookings"
	"github.com/gpneto/Clinica360-sub004/internal/clinic"
	"github.com/gpneto/Clinica360-sub004/internal/messaging"
	"github.com/gpneto/Clinica360-sub004/internal/observability/metrics"
	"github.com/gpneto/Clinica360-sub004/internal/patients"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

var sweepTracer = otel.Tracer("clinica360.internal.reminders")

// reminderTemplate is the outbound template every reminder uses; the window
// label parameter distinguishes the 24-hour send from the 1-hour one.
const reminderTemplate = "lembrete_agendamento"

type reminderRepo interface {
	ListReminderCandidates(ctx context.Context, now time.Time) ([]bookings.Booking, error)
	Reserve(ctx context.Context, tenantID, id string, kind bookings.ReminderKind, now time.Time) error
	MarkSent(ctx context.Context, tenantID, id string, kind bookings.ReminderKind, allDone bool, now time.Time) error
	MarkSkipped(ctx context.Context, tenantID, id, reason string, now time.Time) error
	ReleaseLock(ctx context.Context, tenantID, id, sendError string) error
	Delete(ctx context.Context, tenantID, id string) error
}

type settingsResolver interface {
	Resolve(ctx context.Context, tenantID string) clinic.Settings
}

type patientLookup interface {
	Get(ctx context.Context, tenantID, id string) (*patients.Patient, error)
}

// Result summarizes one sweep.
type Result struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Dispatcher sweeps upcoming bookings and sends whichever reminder is due,
// exactly once per booking and kind even under concurrent invocations: the
// conditional reservation in the repository is the only synchronization.
type Dispatcher struct {
	repo      reminderRepo
	settings  settingsResolver
	patients  patientLookup
	transport messaging.Transport
	logger    *logging.Logger
	m         *metrics.ReminderMetrics

	now func() time.Time
	loc *time.Location
}

// DispatcherConfig wires the dispatcher's collaborators.
type DispatcherConfig struct {
	Repo      reminderRepo
	Settings  settingsResolver
	Patients  patientLookup
	Transport messaging.Transport
	Logger    *logging.Logger
	Metrics   *metrics.ReminderMetrics
	Location  *time.Location
}

// NewDispatcher builds the reminder dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Repo == nil || cfg.Settings == nil || cfg.Patients == nil || cfg.Transport == nil {
		panic("reminders: all dispatcher collaborators are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		repo:      cfg.Repo,
		settings:  cfg.Settings,
		patients:  cfg.Patients,
		transport: cfg.Transport,
		logger:    logger.Component("reminders"),
		m:         cfg.Metrics,
		now:       time.Now,
		loc:       loc,
	}
}

// Sweep runs one pass over the candidate bookings. Failures on individual
// bookings are logged and counted but never stop the sweep.
func (d *Dispatcher) Sweep(ctx context.Context) (Result, error) {
	ctx, span := sweepTracer.Start(ctx, "reminders.sweep")
	defer span.End()

	now := d.now().In(d.loc)
	d.m.ObserveSweep()

	candidates, err := d.repo.ListReminderCandidates(ctx, now)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	var result Result
	result.Scanned = len(candidates)
	settingsByTenant := map[string]clinic.Settings{}

	for i := range candidates {
		booking := &candidates[i]
		switch d.processCandidate(ctx, booking, settingsByTenant, now) {
		case outcomeSent:
			result.Sent++
		case outcomeSkipped:
			result.Skipped++
		case outcomeError:
			result.Errors++
		}
	}

	span.SetAttributes(
		attribute.Int("clinica360.reminders.scanned", result.Scanned),
		attribute.Int("clinica360.reminders.sent", result.Sent),
		attribute.Int("clinica360.reminders.skipped", result.Skipped),
		attribute.Int("clinica360.reminders.errors", result.Errors),
	)
	d.m.ObserveOutcome("sent", result.Sent)
	d.m.ObserveOutcome("skipped", result.Skipped)
	d.m.ObserveOutcome("error", result.Errors)
	d.logger.Info("reminder sweep finished",
		"scanned", result.Scanned, "sent", result.Sent,
		"skipped", result.Skipped, "errors", result.Errors)
	return result, nil
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeSent
	outcomeSkipped
	outcomeError
)

func (d *Dispatcher) processCandidate(ctx context.Context, booking *bookings.Booking, settingsByTenant map[string]clinic.Settings, now time.Time) outcome {
	log := d.logger.With("tenant_id", booking.TenantID, "booking_id", booking.ID)

	if err := booking.Validate(); err != nil {
		log.Warn("skipping booking with invalid record", "error", err)
		if err := d.repo.MarkSkipped(ctx, booking.TenantID, booking.ID, "invalid_record", now); err != nil {
			log.Error("failed to mark invalid booking skipped", "error", err)
			return outcomeError
		}
		return outcomeSkipped
	}

	// A start in the past can never be reminded; the record is removed
	// rather than rescanned forever.
	if booking.Start.Before(now) {
		if err := d.repo.Delete(ctx, booking.TenantID, booking.ID); err != nil {
			log.Error("failed to delete past booking", "error", err)
			return outcomeError
		}
		return outcomeSkipped
	}

	if !booking.Remindable() {
		if err := d.repo.MarkSkipped(ctx, booking.TenantID, booking.ID, "status_"+string(booking.Status), now); err != nil {
			log.Error("failed to mark non-remindable booking skipped", "error", err)
			return outcomeError
		}
		return outcomeSkipped
	}

	settings, ok := settingsByTenant[booking.TenantID]
	if !ok {
		settings = d.settings.Resolve(ctx, booking.TenantID)
		settingsByTenant[booking.TenantID] = settings
	}

	if !settings.Reminder24hEnabled && !settings.Reminder1hEnabled {
		if err := d.repo.MarkSkipped(ctx, booking.TenantID, booking.ID, "reminders_disabled", now); err != nil {
			log.Error("failed to mark disabled-tenant booking skipped", "error", err)
			return outcomeError
		}
		return outcomeSkipped
	}

	// Terminal update interrupted on an earlier sweep: everything required
	// already went out, only the notified flag is missing.
	if allDue(settings, booking) {
		if err := d.repo.MarkSkipped(ctx, booking.TenantID, booking.ID, "already_sent", now); err != nil {
			log.Error("failed to self-heal notified flag", "error", err)
			return outcomeError
		}
		return outcomeSkipped
	}

	kind, due := dueKind(settings, booking, now)
	if !due {
		// Not in any window yet; a later sweep picks it up.
		return outcomeNone
	}

	patient, err := d.patients.Get(ctx, booking.TenantID, booking.PatientID)
	if err != nil {
		log.Error("patient lookup failed", "error", err)
		return outcomeError
	}
	if patient == nil || patient.PhoneE164 == "" {
		log.Warn("skipping booking with no reachable patient", "patient_id", booking.PatientID)
		if err := d.repo.MarkSkipped(ctx, booking.TenantID, booking.ID, "no_recipient", now); err != nil {
			log.Error("failed to mark unreachable booking skipped", "error", err)
			return outcomeError
		}
		return outcomeSkipped
	}

	if err := d.repo.Reserve(ctx, booking.TenantID, booking.ID, kind, now); err != nil {
		if errors.Is(err, bookings.ErrReservationLost) {
			log.Debug("reminder reservation contested", "kind", string(kind))
			return outcomeNone
		}
		log.Error("reminder reservation failed", "error", err, "kind", string(kind))
		return outcomeError
	}

	if err := d.send(ctx, booking, patient, kind); err != nil {
		log.Error("reminder send failed", "error", err, "kind", string(kind))
		if releaseErr := d.repo.ReleaseLock(ctx, booking.TenantID, booking.ID, err.Error()); releaseErr != nil {
			log.Error("failed to release reminder lock", "error", releaseErr)
		}
		return outcomeError
	}

	switch kind {
	case bookings.Reminder24h:
		booking.Reminder24hSent = true
	case bookings.Reminder1h:
		booking.Reminder1hSent = true
	}
	if err := d.repo.MarkSent(ctx, booking.TenantID, booking.ID, kind, allDue(settings, booking), now); err != nil {
		log.Error("failed to record reminder outcome", "error", err, "kind", string(kind))
		return outcomeError
	}
	log.Info("reminder sent", "kind", string(kind),
		"start", booking.Start.In(d.loc).Format(time.RFC3339))
	return outcomeSent
}

func (d *Dispatcher) send(ctx context.Context, booking *bookings.Booking, patient *patients.Patient, kind bookings.ReminderKind) error {
	start := booking.Start.In(d.loc)
	params := map[string]string{
		"nome":   patient.Name,
		"data":   start.Format("02/01/2006"),
		"hora":   start.Format("15:04"),
		"janela": windowLabel(kind),
	}
	_, err := d.transport.SendTemplate(ctx, booking.TenantID, patient.PhoneE164, reminderTemplate, params)
	return err
}
