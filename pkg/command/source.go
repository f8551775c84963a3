package command

// Source identifies where an input event came from.
type Source uint8

const (
	// SourceUnknown is used for events that have no input, such as ticks.
	SourceUnknown Source = 0

	// SourceDemo is the local demo input path.
	SourceDemo Source = 1

	// SourceLink is the wireless link.
	SourceLink Source = 2
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceDemo:
		return "DEMO"
	case SourceLink:
		return "LINK"
	default:
		return "UNKNOWN"
	}
}
