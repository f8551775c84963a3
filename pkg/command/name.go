package command

import "bytes"

const (
	// NameCapacity is the storage size of a Name including the terminator.
	NameCapacity = 16

	// MaxNameLen is the maximum number of characters in a Name.
	MaxNameLen = NameCapacity - 1

	// DefaultTimerLabel is how the empty name is displayed.
	DefaultTimerLabel = "timer"
)

// Name is a bounded, zero-terminated timer name.
// It is comparable and can be used as a map key.
type Name [NameCapacity]byte

// NewName builds a Name from untrusted text, dropping bytes outside
// printable ASCII and truncating to MaxNameLen.
func NewName(s string) Name {
	n, _ := NewNameChecked(s)
	return n
}

// NewNameChecked is NewName that also reports whether characters were
// cut off by truncation.
func NewNameChecked(s string) (Name, bool) {
	var n Name
	i := 0
	for j := 0; j < len(s); j++ {
		c := s[j]
		if c < 0x20 || c > 0x7e {
			continue
		}
		if i == MaxNameLen {
			return n, true
		}
		n[i] = c
		i++
	}
	return n, false
}

// Len returns the number of characters before the terminator.
func (n Name) Len() int {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return i
	}
	return MaxNameLen
}

// String returns the name text.
func (n Name) String() string {
	return string(n[:n.Len()])
}

// IsDefault returns true for the empty name.
func (n Name) IsDefault() bool {
	return n[0] == 0
}

// Display returns the name, or DefaultTimerLabel for the default timer.
func (n Name) Display() string {
	if n.IsDefault() {
		return DefaultTimerLabel
	}
	return n.String()
}
