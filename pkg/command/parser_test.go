package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		cmd      VoiceCommand
		timer    string
		duration uint32
	}{
		{"set with seconds", "set kettle 120", CmdSet, "kettle", 120},
		{"case insensitive", "SET Kettle 120", CmdSet, "kettle", 120},
		{"default timer", "set 90", CmdSet, "", 90},
		{"zero duration", "set egg 0", CmdSet, "egg", 0},
		{"cancel", "cancel kettle", CmdCancel, "kettle", 0},
		{"cancel default", "cancel", CmdCancel, "", 0},
		{"stop", "stop", CmdStop, "", 0},
		{"add", "add tea 30", CmdAdd, "tea", 30},
		{"minus", "minus tea 15", CmdMinus, "tea", 15},
		{"subtract alias", "subtract tea 15", CmdMinus, "tea", 15},
		{"minutes", "set pasta for ten minutes", CmdSet, "pasta", 600},
		{"compound number", "set bread twenty-five minutes", CmdSet, "bread", 1500},
		{"number words", "set soup one hundred and twenty", CmdSet, "soup", 120},
		{"mixed groups", "add tea one minute thirty", CmdAdd, "tea", 90},
		{"hours and minutes", "set roast 1 hour and 30 minutes", CmdSet, "roast", 5400},
		{"a minute", "add a minute to tea", CmdAdd, "tea", 60},
		{"filler words", "set a timer for 5 minutes", CmdSet, "", 300},
		{"preset name", "set baking timer 20 minutes", CmdSet, "baking", 1200},
		{"multi word name", "set green tea 3 minutes", CmdSet, "green tea", 180},
		{"and in name", "set rice and beans for 10 minutes", CmdSet, "rice and beans", 600},
		{"and in cancel name", "cancel salt and pepper", CmdCancel, "salt and pepper", 0},
		{"trailing name", "set 5 minutes for homework", CmdSet, "homework", 300},
		{"punctuation", "Set tea, 60!", CmdSet, "tea", 60},
		{"leading filler", "please stop", CmdStop, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.Equal(t, tt.cmd, got.Cmd)
			assert.Equal(t, tt.timer, got.Name.String())
			assert.Equal(t, tt.duration, got.Duration)
		})
	}
}

func TestParseDegradesToNone(t *testing.T) {
	tests := []struct {
		input  string
		reason string
	}{
		{"", ReasonEmpty},
		{"   ", ReasonEmpty},
		{"hello world", ReasonUnknownKeyword},
		{"reset kettle 10", ReasonUnknownKeyword},
		{"set kettle", ReasonMissingDuration},
		{"add tea", ReasonMissingDuration},
		{"minus tea minutes", ReasonMissingDuration},
		{"set kettle -5", ReasonBadNumber},
		{"set kettle 12x", ReasonBadNumber},
		{"set kettle 3.5", ReasonBadNumber},
		{"set kettle 4294967296", ReasonOverflow},
		{"set kettle 4294967295 hours", ReasonOverflow},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a := p.Analyze(tt.input)
			assert.Equal(t, None(), a.Command)
			assert.Equal(t, tt.reason, a.Reason)
		})
	}
}

func TestParseTruncatesLongName(t *testing.T) {
	a := NewParser().Analyze("set abcdefghijklmnopqrst 60")
	assert.Equal(t, CmdSet, a.Command.Cmd)
	assert.Equal(t, "abcdefghijklmno", a.Command.Name.String())
	assert.True(t, a.Truncated)
	assert.Equal(t, "", a.Reason)
}

func TestParseMaxDuration(t *testing.T) {
	got := Parse("set kettle 4294967295")
	assert.Equal(t, CmdSet, got.Cmd)
	assert.Equal(t, uint32(4294967295), got.Duration)
}

func TestParserAlias(t *testing.T) {
	p := NewParser(WithAlias("Halt", CmdStop), WithAlias("start", CmdSet))
	assert.Equal(t, CmdStop, p.Parse("halt").Cmd)
	assert.Equal(t, CmdSet, p.Parse("start tea 10").Cmd)

	// The package-level parser is unaffected.
	assert.Equal(t, CmdNone, Parse("halt").Cmd)
}

func TestLookupKeyword(t *testing.T) {
	cmd, ok := LookupKeyword("Subtract")
	assert.True(t, ok)
	assert.Equal(t, CmdMinus, cmd)

	_, ok = LookupKeyword("reset")
	assert.False(t, ok)
}
