package domain

type Marker int

const (
	MarkerUnknown Marker = iota
	MarkerOK
	MarkerWarning
	MarkerFailure
)

// StatusToPresentation is total: unrecognized statuses map to MarkerUnknown.
func StatusToPresentation(status HealthStatus) Marker {
	switch status {
	case HealthGreen:
		return MarkerOK
	case HealthYellow:
		return MarkerWarning
	case HealthRed:
		return MarkerFailure
	default:
		return MarkerUnknown
	}
}

func (m Marker) Symbol() string {
	switch m {
	case MarkerOK:
		return "✓"
	case MarkerWarning:
		return "⚠"
	case MarkerFailure:
		return "✗"
	default:
		return "?"
	}
}

func (m Marker) String() string {
	switch m {
	case MarkerOK:
		return "ok"
	case MarkerWarning:
		return "warning"
	case MarkerFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// IsKnown reports whether status is one of the four modeled values.
func IsKnown(status HealthStatus) bool {
	switch status {
	case HealthGreen, HealthYellow, HealthRed, HealthUnknown:
		return true
	}
	return false
}
