package clinic

// Settings holds the per-tenant configuration that drives chat booking,
// reminders and the business-hours calendar. Absent fields in the stored
// record fall back to the defaults below.
type Settings struct {
	CustomerLabel                string        `json:"customerLabel"`
	AutoConfirm                  bool          `json:"autoConfirm"`
	Reminder24hEnabled           bool          `json:"reminder24hEnabled"`
	Reminder1hEnabled            bool          `json:"reminder1hEnabled"`
	ChatBookingEnabled           bool          `json:"chatBookingEnabled"`
	ChatBookingKnownPatientsOnly bool          `json:"chatBookingKnownPatientsOnly"`
	ChatBookingServiceIDs        []string      `json:"chatBookingServiceIds,omitempty"`
	BusinessHours                BusinessHours `json:"businessHours"`
}

// BusinessHours is the tenant calendar: opening hours per weekday, recurring
// breaks and blackout windows.
type BusinessHours struct {
	Days      []DayHours `json:"days,omitempty"`
	Breaks    []Break    `json:"breaks,omitempty"`
	Blackouts []Blackout `json:"blackouts,omitempty"`
}

// DayHours is the opening window for one weekday. Weekday follows
// time.Weekday numbering (0 = Sunday). Open and Close are "HH:MM".
type DayHours struct {
	Weekday int    `json:"weekday"`
	Open    string `json:"open"`
	Close   string `json:"close"`
	Active  bool   `json:"active"`
}

// Break is a recurring weekly pause (lunch, cleaning) inside opening hours.
type Break struct {
	ID          string `json:"id,omitempty"`
	Weekday     int    `json:"weekday"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description,omitempty"`
}

// BlackoutKind selects how a blackout window recurs.
type BlackoutKind string

const (
	BlackoutWeekly  BlackoutKind = "weekly"
	BlackoutMonthly BlackoutKind = "monthly"
	BlackoutDate    BlackoutKind = "date"
)

// Blackout closes part of a day: every week on Weekday, every month on
// DayOfMonth, or once on Date ("YYYY-MM-DD"). Inactive blackouts are ignored.
type Blackout struct {
	ID          string       `json:"id,omitempty"`
	Kind        BlackoutKind `json:"kind"`
	Weekday     int          `json:"weekday,omitempty"`
	DayOfMonth  int          `json:"dayOfMonth,omitempty"`
	Date        string       `json:"date,omitempty"`
	Start       string       `json:"start"`
	End         string       `json:"end"`
	Description string       `json:"description,omitempty"`
	Active      bool         `json:"active"`
}

// DefaultSettings is what a tenant gets before anything is stored: every
// reminder on, chat booking off, generic "paciente" label, no calendar
// restrictions beyond the availability engine's weekday defaults.
func DefaultSettings() Settings {
	return Settings{
		CustomerLabel:      "paciente",
		AutoConfirm:        true,
		Reminder24hEnabled: true,
		Reminder1hEnabled:  true,
	}
}

// settingsRecord is the persisted shape. Toggles are pointers so an absent
// attribute is distinguishable from an explicit false and can inherit the
// default.
type settingsRecord struct {
	TenantID                     string         `dynamodbav:"tenantId"`
	CustomerLabel                string         `dynamodbav:"customerLabel,omitempty"`
	AutoConfirm                  *bool          `dynamodbav:"autoConfirm,omitempty"`
	Reminder24hEnabled           *bool          `dynamodbav:"reminder24hEnabled,omitempty"`
	Reminder1hEnabled            *bool          `dynamodbav:"reminder1hEnabled,omitempty"`
	ChatBookingEnabled           *bool          `dynamodbav:"chatBookingEnabled,omitempty"`
	ChatBookingKnownPatientsOnly *bool          `dynamodbav:"chatBookingKnownPatientsOnly,omitempty"`
	ChatBookingServiceIDs        []string       `dynamodbav:"chatBookingServiceIds,omitempty"`
	BusinessHours                *BusinessHours `dynamodbav:"businessHours,omitempty"`
	UpdatedAt                    string         `dynamodbav:"updatedAt,omitempty"`
}

// merge layers the stored record over the defaults.
func (r *settingsRecord) merge() Settings {
	s := DefaultSettings()
	if r == nil {
		return s
	}
	if r.CustomerLabel != "" {
		s.CustomerLabel = r.CustomerLabel
	}
	if r.AutoConfirm != nil {
		s.AutoConfirm = *r.AutoConfirm
	}
	if r.Reminder24hEnabled != nil {
		s.Reminder24hEnabled = *r.Reminder24hEnabled
	}
	if r.Reminder1hEnabled != nil {
		s.Reminder1hEnabled = *r.Reminder1hEnabled
	}
	if r.ChatBookingEnabled != nil {
		s.ChatBookingEnabled = *r.ChatBookingEnabled
	}
	if r.ChatBookingKnownPatientsOnly != nil {
		s.ChatBookingKnownPatientsOnly = *r.ChatBookingKnownPatientsOnly
	}
	if len(r.ChatBookingServiceIDs) > 0 {
		s.ChatBookingServiceIDs = append([]string(nil), r.ChatBookingServiceIDs...)
	}
	if r.BusinessHours != nil {
		s.BusinessHours = *r.BusinessHours
	}
	return s
}

// ServiceAllowedForChat reports whether serviceID may be offered in the chat
// flow. An empty restriction list allows every service.
func (s Settings) ServiceAllowedForChat(serviceID string) bool {
	if len(s.ChatBookingServiceIDs) == 0 {
		return true
	}
	for _, id := range s.ChatBookingServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
