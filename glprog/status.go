package glprog

import "strconv"

// StatusKind classifies the user-visible program status.
type StatusKind uint8

const (
	StatusLive StatusKind = iota
	StatusEditing
	StatusLoading
	StatusError
	StatusFallback
	StatusDisabled
)

func (k StatusKind) String() string {
	switch k {
	case StatusLive:
		return "live"
	case StatusEditing:
		return "editing"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusFallback:
		return "fallback"
	case StatusDisabled:
		return "disabled"
	}
	return "StatusKind(" + strconv.Itoa(int(k)) + ")"
}

// Status is shown to the user. Message carries the diagnostic or reason
// for error, fallback and disabled statuses.
type Status struct {
	Kind    StatusKind
	Message string
}

func (s Status) String() string {
	if s.Message == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + ": " + s.Message
}

// Color returns the hex RGB color the status is displayed with.
func (s Status) Color() string {
	switch s.Kind {
	case StatusLive:
		return "#4dffaa"
	case StatusEditing, StatusLoading:
		return "#ffcc44"
	}
	return "#ff4466"
}
