package command

import "strings"

// Vocabulary holds the words the Parser understands.
type Vocabulary struct {
	// Keywords maps a leading word to its command.
	Keywords map[string]VoiceCommand

	// Units maps a unit word to its length in seconds.
	Units map[string]uint32

	// Fillers are skipped wherever they appear after the keyword.
	Fillers map[string]bool
}

// DefaultVocabulary returns a fresh copy of the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	v := Vocabulary{
		Keywords: map[string]VoiceCommand{
			"set":      CmdSet,
			"cancel":   CmdCancel,
			"add":      CmdAdd,
			"minus":    CmdMinus,
			"subtract": CmdMinus,
			"stop":     CmdStop,
		},
		Units:   make(map[string]uint32),
		Fillers: make(map[string]bool),
	}
	for _, w := range []string{"s", "sec", "secs", "second", "seconds"} {
		v.Units[w] = 1
	}
	for _, w := range []string{"min", "mins", "minute", "minutes"} {
		v.Units[w] = 60
	}
	for _, w := range []string{"hr", "hrs", "hour", "hours"} {
		v.Units[w] = 3600
	}
	for _, w := range []string{
		"timer", "timers", "for", "to", "the", "by", "from", "of",
		"please", "a", "an", "my",
	} {
		v.Fillers[w] = true
	}
	return v
}

// LookupKeyword returns the command for a built-in keyword.
func LookupKeyword(word string) (VoiceCommand, bool) {
	cmd, ok := DefaultVocabulary().Keywords[strings.ToLower(word)]
	return cmd, ok
}

// IsFiller reports whether word is a built-in filler. Fillers are dropped
// before the keyword lookup, so they can never act as keywords.
func IsFiller(word string) bool {
	return DefaultVocabulary().Fillers[strings.ToLower(word)]
}

var smallNumbers = map[string]uint64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]uint64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

func isNumberWord(tok string) bool {
	if _, ok := smallNumbers[tok]; ok {
		return true
	}
	if _, ok := tens[tok]; ok {
		return true
	}
	return tok == "hundred" || tok == "thousand"
}
