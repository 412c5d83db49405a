package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/gpneto/Clinica360-sub004/internal/bookings"
	"github.com/gpneto/Clinica360-sub004/internal/catalog"
	"github.com/gpneto/Clinica360-sub004/internal/clinic"
	"github.com/gpneto/Clinica360-sub004/internal/observability/metrics"
	"github.com/gpneto/Clinica360-sub004/internal/patients"
	"github.com/gpneto/Clinica360-sub004/internal/schedule"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// consultListingLimit caps how many future bookings the consult flow lists.
const consultListingLimit = 10

type settingsResolver interface {
	Resolve(ctx context.Context, tenantID string) clinic.Settings
}

type patientDirectory interface {
	FindByPhone(ctx context.Context, tenantID, phone string) (*patients.Patient, error)
	Create(ctx context.Context, patient *patients.Patient) error
}

type catalogStore interface {
	ListActiveProfessionals(ctx context.Context, tenantID string) ([]catalog.Professional, error)
	ListActiveServices(ctx context.Context, tenantID string, allowedIDs []string) ([]catalog.Service, error)
	GetProfessional(ctx context.Context, tenantID, id string) (*catalog.Professional, error)
	GetService(ctx context.Context, tenantID, id string) (*catalog.Service, error)
}

type bookingStore interface {
	Create(ctx context.Context, booking *bookings.Booking) error
	ListBusy(ctx context.Context, tenantID, professionalID string) ([]schedule.Range, error)
	ListUpcomingByPatient(ctx context.Context, tenantID, patientID string, now time.Time, limit int) ([]bookings.Booking, error)
}

type conflictDetector interface {
	HasConflict(ctx context.Context, tenantID, professionalID string, start, end time.Time) bool
}

type conversationStore interface {
	Load(ctx context.Context, tenantID, chatID string, now time.Time) (*Conversation, error)
	Save(ctx context.Context, conversation *Conversation, now time.Time) error
}

// Machine drives one conversation per inbound message: it loads the chat's
// context, applies the transition for the current state and returns the
// replies to send. Different conversations run independently; double-booking
// races between them are closed by the conflict detector at confirm time.
type Machine struct {
	store    conversationStore
	settings settingsResolver
	patients patientDirectory
	catalog  catalogStore
	bookings bookingStore
	conflict conflictDetector
	logger   *logging.Logger
	m        *metrics.ChatMetrics

	now func() time.Time
	loc *time.Location
}

// MachineConfig wires the machine's collaborators.
type MachineConfig struct {
	Store    conversationStore
	Settings settingsResolver
	Patients patientDirectory
	Catalog  catalogStore
	Bookings bookingStore
	Conflict conflictDetector
	Logger   *logging.Logger
	Metrics  *metrics.ChatMetrics
	Location *time.Location
}

// NewMachine builds the booking state machine.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.Store == nil || cfg.Settings == nil || cfg.Patients == nil ||
		cfg.Catalog == nil || cfg.Bookings == nil || cfg.Conflict == nil {
		panic("chat: all machine collaborators are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Machine{
		store:    cfg.Store,
		settings: cfg.Settings,
		patients: cfg.Patients,
		catalog:  cfg.Catalog,
		bookings: cfg.Bookings,
		conflict: cfg.Conflict,
		logger:   logger.Component("chat"),
		m:        cfg.Metrics,
		now:      time.Now,
		loc:      loc,
	}
}

// Process handles one inbound message and returns the outbound replies, in
// send order. An empty slice with a nil error means the message is
// deliberately suppressed (booking disabled, or human handoff in progress).
func (m *Machine) Process(ctx context.Context, tenantID, chatID, text string) ([]string, error) {
	now := m.now().In(m.loc)
	conversation, err := m.store.Load(ctx, tenantID, chatID, now)
	if err != nil {
		return nil, err
	}
	state := conversation.State
	lastTouched := conversation.UpdatedAt
	started := time.Now()
	defer func() {
		m.m.ObserveProcessLatency(string(state), time.Since(started).Seconds())
	}()

	enabled, canBook, err := m.ensureEligibility(ctx, conversation, now)
	if err != nil {
		return nil, err
	}
	if !enabled {
		m.observe(state, "disabled")
		return nil, nil
	}
	if !canBook {
		m.observe(state, "denied")
		return []string{replyNotEligible}, nil
	}

	// A conversation untouched for a calendar day resumes at the menu,
	// even mid-flow or in human handoff.
	if startOfDay(now).After(startOfDay(lastTouched.In(m.loc))) {
		conversation.Reset()
		conversation.State = StateMenu
		if err := m.store.Save(ctx, conversation, now); err != nil {
			return nil, err
		}
		m.observe(state, "stale_reset")
		return []string{withExitFooter(replyMenu)}, nil
	}

	if conversation.State == StateManualHandoff {
		if !wantsMenuReturn(text) {
			m.observe(state, "suppressed")
			return nil, nil
		}
		conversation.Reset()
		conversation.State = StateMenu
		if err := m.store.Save(ctx, conversation, now); err != nil {
			return nil, err
		}
		m.observe(state, "menu_return")
		return []string{withExitFooter(replyMenu)}, nil
	}

	if conversation.State != StateInitial && isExitCommand(text) {
		conversation.Reset()
		if err := m.store.Save(ctx, conversation, now); err != nil {
			return nil, err
		}
		m.observe(state, "exit")
		return []string{replyCanceled}, nil
	}

	replies, err := m.transition(ctx, conversation, strings.TrimSpace(text), now)
	if err != nil {
		m.observe(state, "error")
		return nil, err
	}
	if err := m.store.Save(ctx, conversation, now); err != nil {
		return nil, err
	}
	m.observe(state, "ok")
	return replies, nil
}

func (m *Machine) transition(ctx context.Context, c *Conversation, text string, now time.Time) ([]string, error) {
	switch c.State {
	case StateInitial:
		c.State = StateMenu
		return []string{withExitFooter(replyMenu)}, nil
	case StateMenu:
		return m.handleMenu(ctx, c, text, now)
	case StateSelectProfessional:
		return m.handleSelectProfessional(ctx, c, text)
	case StateSelectService:
		return m.handleSelectService(ctx, c, text, now)
	case StateSelectDate:
		return m.handleSelectDate(ctx, c, text, now)
	case StateSelectTime:
		return m.handleSelectTime(ctx, c, text, now)
	case StateConfirm:
		return m.handleConfirm(ctx, c, text, now)
	case StateConsult:
		return m.handleConsult(ctx, c, now)
	case StateCollectName:
		return m.handleCollectName(ctx, c, text, now)
	case StateManualHandoff:
		// Handled before the switch; unreachable.
		return nil, nil
	}
	// Unknown state on a stored record: recover at the menu.
	c.Reset()
	c.State = StateMenu
	return []string{withExitFooter(replyMenu)}, nil
}

// ensureEligibility computes and memoizes chatBookingEnabled/canBook on the
// conversation so settings and patient lookups run once per session.
func (m *Machine) ensureEligibility(ctx context.Context, c *Conversation, now time.Time) (enabled, canBook bool, err error) {
	if c.BookingEnabled != nil && c.CanBook != nil {
		return *c.BookingEnabled, *c.CanBook, nil
	}

	settings := m.settings.Resolve(ctx, c.TenantID)
	enabled = settings.ChatBookingEnabled
	canBook = enabled
	if enabled && settings.ChatBookingKnownPatientsOnly {
		patient, findErr := m.patients.FindByPhone(ctx, c.TenantID, c.ChatID)
		if findErr != nil {
			return false, false, findErr
		}
		canBook = patient != nil
		if patient != nil {
			c.PatientID = patient.ID
		}
	}

	c.BookingEnabled = aws.Bool(enabled)
	c.CanBook = aws.Bool(canBook)
	if err := m.store.Save(ctx, c, now); err != nil {
		return false, false, err
	}
	return enabled, canBook, nil
}

func (m *Machine) handleMenu(ctx context.Context, c *Conversation, text string, now time.Time) ([]string, error) {
	text = strings.ToLower(text)
	switch {
	case text == "1" || strings.Contains(text, "agendar"):
		professionals, err := m.catalog.ListActiveProfessionals(ctx, c.TenantID)
		if err != nil {
			return nil, err
		}
		if len(professionals) == 0 {
			c.Reset()
			return []string{feedbackSearchingProfessionals, withExitFooter(replyNoProfessionals)}, nil
		}
		c.State = StateSelectProfessional
		return []string{
			feedbackSearchingProfessionals,
			withExitFooter(listProfessionals("Por favor, escolha o profissional:\n\n", professionals)),
		}, nil

	case text == "2" || strings.Contains(text, "consultar"):
		c.State = StateConsult
		return m.handleConsult(ctx, c, now)

	case text == "3" || strings.Contains(text, "atendente") || strings.Contains(text, "falar"):
		c.State = StateManualHandoff
		return []string{withExitFooter(replyManualHandoff)}, nil
	}
	return []string{withExitFooter(replyMenuReprompt)}, nil
}

func (m *Machine) handleSelectProfessional(ctx context.Context, c *Conversation, text string) ([]string, error) {
	professionals, err := m.catalog.ListActiveProfessionals(ctx, c.TenantID)
	if err != nil {
		return nil, err
	}
	if len(professionals) == 0 {
		c.Reset()
		return []string{withExitFooter(replyNoProfessionals)}, nil
	}

	idx := matchIndex(text, len(professionals))
	if idx < 0 {
		names := make([]string, len(professionals))
		for i, p := range professionals {
			names[i] = p.Name
		}
		idx = matchByName(text, names)
	}
	if idx < 0 {
		return []string{withExitFooter(listProfessionals(
			"Profissional não encontrado. Por favor, escolha um dos profissionais:\n\n", professionals))}, nil
	}
	selected := professionals[idx]

	settings := m.settings.Resolve(ctx, c.TenantID)
	services, err := m.catalog.ListActiveServices(ctx, c.TenantID, settings.ChatBookingServiceIDs)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		c.Reset()
		return []string{feedbackSearchingServices, withExitFooter(replyNoServices)}, nil
	}

	c.ProfessionalID = selected.ID
	c.State = StateSelectService
	header := fmt.Sprintf("Profissional selecionado: *%s*\n\nAgora, escolha o serviço:\n\n", selected.Name)
	return []string{feedbackSearchingServices, withExitFooter(listServices(header, services))}, nil
}

func (m *Machine) handleSelectService(ctx context.Context, c *Conversation, text string, now time.Time) ([]string, error) {
	if c.ProfessionalID == "" {
		c.Reset()
		return []string{replyGenericError}, nil
	}

	settings := m.settings.Resolve(ctx, c.TenantID)
	services, err := m.catalog.ListActiveServices(ctx, c.TenantID, settings.ChatBookingServiceIDs)
	if err != nil {
		return nil, err
	}

	idx := matchIndex(text, len(services))
	if idx < 0 {
		names := make([]string, len(services))
		for i, svc := range services {
			names[i] = svc.Name
		}
		idx = matchByName(text, names)
	}
	if idx < 0 {
		var b strings.Builder
		b.WriteString("Serviço não encontrado. Por favor, escolha um dos serviços:\n\n")
		for i, svc := range services {
			fmt.Fprintf(&b, "%d. %s\n", i+1, svc.Name)
		}
		return []string{withExitFooter(b.String())}, nil
	}
	selected := services[idx]

	c.ServiceIDs = []string{selected.ID}
	c.State = StateSelectDate
	return []string{withExitFooter(datePrompt(selected.Name, startOfDay(now)))}, nil
}

func (m *Machine) handleSelectDate(ctx context.Context, c *Conversation, text string, now time.Time) ([]string, error) {
	if c.ProfessionalID == "" || len(c.ServiceIDs) == 0 {
		c.Reset()
		return []string{replyGenericError}, nil
	}

	date, err := parseDate(text, now)
	switch err {
	case nil:
	case errDatePast:
		return []string{feedbackCheckingDate, withExitFooter(replyDatePast)}, nil
	case errDateTooFar:
		return []string{feedbackCheckingDate, withExitFooter(replyDateTooFar)}, nil
	default:
		return []string{feedbackCheckingDate, withExitFooter(replyDateInvalid)}, nil
	}

	slots, err := m.availableSlots(ctx, c, date)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		message := fmt.Sprintf("Não há horários disponíveis para %s. Por favor, escolha outra data.", formatDateBR(date))
		return []string{feedbackCheckingDate, withExitFooter(message)}, nil
	}

	c.SelectedDate = date.Format("2006-01-02")
	c.State = StateSelectTime
	header := fmt.Sprintf("Data selecionada: *%s*\n\nHorários disponíveis:\n\n", formatDateBR(date))
	listing := listSlots(header, slots) + "\nDigite o número do horário desejado."
	return []string{feedbackCheckingDate, withExitFooter(listing)}, nil
}

func (m *Machine) handleSelectTime(ctx context.Context, c *Conversation, text string, now time.Time) ([]string, error) {
	if c.ProfessionalID == "" || len(c.ServiceIDs) == 0 || c.SelectedDate == "" {
		c.Reset()
		return []string{replyGenericError}, nil
	}
	date, err := time.ParseInLocation("2006-01-02", c.SelectedDate, m.loc)
	if err != nil {
		c.Reset()
		return []string{replyGenericError}, nil
	}

	slots, err := m.availableSlots(ctx, c, date)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		c.SelectedDate = ""
		c.State = StateSelectDate
		return []string{feedbackCheckingSlot,
			withExitFooter("Não há horários disponíveis. Voltando à seleção de data...")}, nil
	}

	idx := matchIndex(text, len(slots))
	if idx < 0 {
		if token := parseTimeToken(text); token != "" {
			for i, slot := range slots {
				if slot.Start == token {
					idx = i
					break
				}
			}
		}
	}
	if idx < 0 {
		return []string{feedbackCheckingSlot, withExitFooter(listSlots(
			"Horário não encontrado. Por favor, escolha um dos horários:\n\n", slots))}, nil
	}
	selected := slots[idx]

	start, end, err := m.slotInterval(date, selected)
	if err != nil {
		c.Reset()
		return []string{replyGenericError}, nil
	}
	if m.conflict.HasConflict(ctx, c.TenantID, c.ProfessionalID, start, end) {
		return []string{feedbackCheckingSlot, withExitFooter(replySlotTaken),
			withExitFooter(listSlots("Horários disponíveis:\n\n", slots))}, nil
	}

	professional, err := m.catalog.GetProfessional(ctx, c.TenantID, c.ProfessionalID)
	if err != nil {
		return nil, err
	}
	professionalName := "Profissional"
	if professional != nil {
		professionalName = professional.Name
	}
	serviceNames, _, priceCents, err := m.serviceTotals(ctx, c)
	if err != nil {
		return nil, err
	}

	c.SelectedTime = selected.Start
	c.State = StateConfirm
	summary := confirmationSummary(professionalName, serviceNames, date, selected, priceCents)
	return []string{feedbackCheckingSlot, withExitFooter(summary)}, nil
}

func (m *Machine) handleConfirm(ctx context.Context, c *Conversation, text string, now time.Time) ([]string, error) {
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "CANCELAR") || strings.Contains(upper, "CANCEL") {
		c.Reset()
		return []string{replyBookingCanceled}, nil
	}
	if !strings.Contains(upper, "CONFIRMAR") && !strings.Contains(upper, "CONFIRM") {
		return []string{withExitFooter(replyConfirmReprompt)}, nil
	}
	if !c.HasBookingSelections() {
		c.Reset()
		return []string{replyGenericError}, nil
	}

	if c.PatientID == "" {
		patient, err := m.patients.FindByPhone(ctx, c.TenantID, c.ChatID)
		if err != nil {
			return nil, err
		}
		if patient == nil {
			settings := m.settings.Resolve(ctx, c.TenantID)
			if settings.ChatBookingKnownPatientsOnly {
				c.Reset()
				return []string{feedbackProcessingBooking, replyRegistrationRequired}, nil
			}
			c.State = StateCollectName
			return []string{feedbackProcessingBooking, withExitFooter(replyAskName)}, nil
		}
		c.PatientID = patient.ID
		c.PatientName = patient.Name
	}

	replies, err := m.finalizeBooking(ctx, c, now)
	if err != nil {
		return nil, err
	}
	return append([]string{feedbackProcessingBooking}, replies...), nil
}

// finalizeBooking re-checks the slot one last time and creates the record.
// The conversation resets either way.
func (m *Machine) finalizeBooking(ctx context.Context, c *Conversation, now time.Time) ([]string, error) {
	date, err := time.ParseInLocation("2006-01-02", c.SelectedDate, m.loc)
	if err != nil {
		c.Reset()
		return []string{replyGenericError}, nil
	}
	startMinutes, err := schedule.ParseClock(c.SelectedTime)
	if err != nil {
		c.Reset()
		return []string{replyGenericError}, nil
	}
	_, durationMin, priceCents, err := m.serviceTotals(ctx, c)
	if err != nil {
		return nil, err
	}

	start := date.Add(time.Duration(startMinutes) * time.Minute)
	end := start.Add(time.Duration(durationMin) * time.Minute)

	if m.conflict.HasConflict(ctx, c.TenantID, c.ProfessionalID, start, end) {
		c.Reset()
		return []string{replySlotTakenFinal}, nil
	}

	booking := &bookings.Booking{
		TenantID:       c.TenantID,
		ID:             uuid.NewString(),
		ProfessionalID: c.ProfessionalID,
		PatientID:      c.PatientID,
		ServiceIDs:     append([]string(nil), c.ServiceIDs...),
		Start:          start,
		End:            end,
		PriceCents:     priceCents,
		Status:         bookings.StatusScheduled,
		CreatedVia:     "chat",
	}
	if err := m.bookings.Create(ctx, booking); err != nil {
		m.logger.Error("chat booking creation failed",
			"tenant_id", c.TenantID, "chat_id", c.ChatID, "error", err)
		c.Reset()
		return []string{replyGenericError}, nil
	}
	m.m.ObserveBookingCreated(c.TenantID)

	slot := schedule.Slot{Start: c.SelectedTime, End: end.In(m.loc).Format("15:04")}
	c.Reset()
	return []string{bookingConfirmed(date, slot)}, nil
}

func (m *Machine) handleConsult(ctx context.Context, c *Conversation, now time.Time) ([]string, error) {
	patient, err := m.patients.FindByPhone(ctx, c.TenantID, c.ChatID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		c.State = StateCollectName
		return []string{feedbackConsulting, withExitFooter(replyAskNameForConsult)}, nil
	}
	c.PatientID = patient.ID

	listing, err := m.consultListing(ctx, c, patient.ID, now)
	if err != nil {
		return nil, err
	}
	return append([]string{feedbackConsulting}, listing...), nil
}

func (m *Machine) consultListing(ctx context.Context, c *Conversation, patientID string, now time.Time) ([]string, error) {
	upcoming, err := m.bookings.ListUpcomingByPatient(ctx, c.TenantID, patientID, now, consultListingLimit)
	if err != nil {
		return nil, err
	}
	c.Reset()
	if len(upcoming) == 0 {
		return []string{replyNoUpcomingBookings}, nil
	}

	items := make([]bookingListing, 0, len(upcoming))
	for _, booking := range upcoming {
		item := bookingListing{booking: booking, professionalName: "Profissional", serviceName: "Serviço"}
		if professional, err := m.catalog.GetProfessional(ctx, c.TenantID, booking.ProfessionalID); err == nil && professional != nil {
			item.professionalName = professional.Name
		}
		if len(booking.ServiceIDs) > 0 {
			if svc, err := m.catalog.GetService(ctx, c.TenantID, booking.ServiceIDs[0]); err == nil && svc != nil {
				item.serviceName = svc.Name
			}
		}
		items = append(items, item)
	}
	return []string{listBookings(items, m.loc)}, nil
}

func (m *Machine) handleCollectName(ctx context.Context, c *Conversation, text string, now time.Time) ([]string, error) {
	name := strings.TrimSpace(text)
	if len([]rune(name)) < 2 {
		return []string{feedbackCreatingRegistration, withExitFooter(replyNameTooShort)}, nil
	}

	patient := &patients.Patient{
		TenantID:         c.TenantID,
		Name:             name,
		PhoneE164:        c.ChatID,
		NotifyPreference: "whatsapp",
		CreatedViaChat:   true,
	}
	if err := m.patients.Create(ctx, patient); err != nil {
		m.logger.Error("chat patient creation failed",
			"tenant_id", c.TenantID, "chat_id", c.ChatID, "error", err)
		c.Reset()
		return []string{feedbackCreatingRegistration, replyGenericError}, nil
	}
	c.PatientID = patient.ID
	c.PatientName = patient.Name

	// Resume wherever the flow was paused for lack of identity: finish the
	// booking if one is staged, otherwise fall through to the consult
	// listing the user originally asked for.
	if c.HasBookingSelections() {
		c.State = StateConfirm
		replies, err := m.finalizeBooking(ctx, c, now)
		if err != nil {
			return nil, err
		}
		return append([]string{feedbackCreatingRegistration}, replies...), nil
	}

	listing, err := m.consultListing(ctx, c, patient.ID, now)
	if err != nil {
		return nil, err
	}
	return append([]string{feedbackCreatingRegistration}, listing...), nil
}

// availableSlots runs the availability engine for the conversation's
// professional on a date, with the summed duration of the selected services.
func (m *Machine) availableSlots(ctx context.Context, c *Conversation, date time.Time) ([]schedule.Slot, error) {
	settings := m.settings.Resolve(ctx, c.TenantID)
	professional, err := m.catalog.GetProfessional(ctx, c.TenantID, c.ProfessionalID)
	if err != nil {
		return nil, err
	}
	work := schedule.DefaultWorkWindow()
	if professional != nil {
		work = professional.WorkWindow()
	}
	busy, err := m.bookings.ListBusy(ctx, c.TenantID, c.ProfessionalID)
	if err != nil {
		return nil, err
	}
	_, durationMin, _, err := m.serviceTotals(ctx, c)
	if err != nil {
		return nil, err
	}

	return schedule.Slots(schedule.SlotRequest{
		Date:     date,
		Hours:    settings.BusinessHours,
		Work:     work,
		Duration: time.Duration(durationMin) * time.Minute,
		Busy:     busy,
	}), nil
}

// serviceTotals sums names, duration and price across the selected services.
func (m *Machine) serviceTotals(ctx context.Context, c *Conversation) (names []string, durationMin int, priceCents int64, err error) {
	for _, id := range c.ServiceIDs {
		svc, err := m.catalog.GetService(ctx, c.TenantID, id)
		if err != nil {
			return nil, 0, 0, err
		}
		if svc == nil {
			continue
		}
		names = append(names, svc.Name)
		durationMin += svc.Duration()
		priceCents += svc.PriceCents
	}
	if durationMin == 0 {
		durationMin = int(schedule.DefaultSlotDuration / time.Minute)
	}
	return names, durationMin, priceCents, nil
}

func (m *Machine) slotInterval(date time.Time, slot schedule.Slot) (time.Time, time.Time, error) {
	startMinutes, err := schedule.ParseClock(slot.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMinutes, err := schedule.ParseClock(slot.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := date.Add(time.Duration(startMinutes) * time.Minute)
	return start, date.Add(time.Duration(endMinutes) * time.Minute), nil
}

func (m *Machine) observe(state State, outcome string) {
	m.m.ObserveInbound(string(state), outcome)
}
