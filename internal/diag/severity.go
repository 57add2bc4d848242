package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevHelp attaches a hint to the user.
	SevHelp Severity = iota
	// SevInfo is for informational diagnostics.
	SevInfo
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevHelp:
		return "HELP"
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
