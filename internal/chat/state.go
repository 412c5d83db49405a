package chat

// State is the conversation's position in the booking flow. The set is
// closed; Process matches it exhaustively and treats anything else as a
// corrupt record.
type State string

const (
	StateInitial            State = "initial"
	StateMenu               State = "menu"
	StateSelectProfessional State = "select_professional"
	StateSelectService      State = "select_service"
	StateSelectDate         State = "select_date"
	StateSelectTime         State = "select_time"
	StateConfirm            State = "confirm"
	StateConsult            State = "consult"
	StateCollectName        State = "collect_patient_name"
	StateManualHandoff      State = "manual_handoff"
)

// Valid reports whether s is one of the closed set.
func (s State) Valid() bool {
	switch s {
	case StateInitial, StateMenu, StateSelectProfessional, StateSelectService,
		StateSelectDate, StateSelectTime, StateConfirm, StateConsult,
		StateCollectName, StateManualHandoff:
		return true
	}
	return false
}
