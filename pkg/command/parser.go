package command

import (
	"math"
	"strconv"
	"strings"
)

// Reasons an input degrades to None().
const (
	ReasonEmpty           = "empty input"
	ReasonUnknownKeyword  = "unknown keyword"
	ReasonUnknownCommand  = "unknown command"
	ReasonMissingDuration = "missing duration"
	ReasonBadNumber       = "malformed number"
	ReasonOverflow        = "duration overflow"
)

const punctuation = ".,!?;:\"'"

// groupSeparator joins duration groups ("1 hour and 30 minutes").
// Elsewhere it is an ordinary word, so "salt and pepper" keeps it.
const groupSeparator = "and"

// Analysis is a parse result with diagnostics.
type Analysis struct {
	Command ParsedCommand

	// Reason is set when Command is None().
	Reason string

	// Truncated is set when the name was cut to MaxNameLen.
	Truncated bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithAlias adds an extra keyword for cmd.
func WithAlias(alias string, cmd VoiceCommand) Option {
	return func(p *Parser) {
		p.vocab.Keywords[strings.ToLower(alias)] = cmd
	}
}

// Parser turns a line of recognized text into a ParsedCommand.
// A Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	vocab Vocabulary
}

// NewParser creates a Parser with the default vocabulary.
func NewParser(opts ...Option) *Parser {
	p := &Parser{vocab: DefaultVocabulary()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse parses text with the default vocabulary.
func Parse(text string) ParsedCommand {
	return defaultParser.Parse(text)
}

// Parse returns the command in text, or None() if there is none.
func (p *Parser) Parse(text string) ParsedCommand {
	return p.Analyze(text).Command
}

// Analyze parses text and reports why it degraded to None(), if it did.
func (p *Parser) Analyze(text string) Analysis {
	tokens := p.skipFillers(tokenize(text))
	if len(tokens) == 0 {
		return Analysis{Reason: ReasonEmpty}
	}

	cmd, ok := p.vocab.Keywords[tokens[0]]
	if !ok || cmd == CmdNone {
		return Analysis{Reason: ReasonUnknownKeyword}
	}
	rest := tokens[1:]

	if !cmd.TakesDuration() {
		name, truncated := NewNameChecked(strings.Join(p.nameWords(rest), " "))
		return Analysis{
			Command:   ParsedCommand{Cmd: cmd, Name: name},
			Truncated: truncated,
		}
	}

	start := -1
	for i, tok := range rest {
		if p.startsDuration(rest, i) {
			start = i
			break
		}
		if looksNumeric(tok) {
			return Analysis{Reason: ReasonBadNumber}
		}
	}
	if start < 0 {
		return Analysis{Reason: ReasonMissingDuration}
	}

	seconds, consumed, reason := p.duration(rest[start:])
	if reason != "" {
		return Analysis{Reason: reason}
	}

	// "set 5 minutes for tea" names the timer after the duration.
	words := p.nameWords(rest[:start])
	if len(words) == 0 {
		words = p.nameWords(rest[start+consumed:])
	}
	name, truncated := NewNameChecked(strings.Join(words, " "))
	return Analysis{
		Command:   ParsedCommand{Cmd: cmd, Name: name, Duration: seconds},
		Truncated: truncated,
	}
}

func (p *Parser) skipFillers(tokens []string) []string {
	for len(tokens) > 0 && p.vocab.Fillers[tokens[0]] {
		tokens = tokens[1:]
	}
	return tokens
}

func (p *Parser) nameWords(tokens []string) []string {
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !p.vocab.Fillers[tok] {
			words = append(words, tok)
		}
	}
	return words
}

func (p *Parser) startsDuration(tokens []string, i int) bool {
	tok := tokens[i]
	if isDigits(tok) || isNumberWord(tok) {
		return true
	}
	if tok == "a" || tok == "an" {
		_, unit := p.vocab.Units[next(tokens, i)]
		return unit
	}
	return false
}

// duration sums "<number> [unit]" groups. A group without a unit is in
// seconds and ends the expression. It returns the seconds and the number of
// tokens consumed.
func (p *Parser) duration(tokens []string) (uint32, int, string) {
	var total uint64
	groups := 0
	i := 0
	for i < len(tokens) {
		skip := p.vocab.Fillers[tokens[i]] || tokens[i] == groupSeparator
		if groups > 0 && skip && !p.startsDuration(tokens, i) {
			i++
			continue
		}
		value, n, reason := p.number(tokens, i)
		if reason != "" {
			return 0, 0, reason
		}
		if n == 0 {
			break
		}
		i += n

		unit, hasUnit := p.vocab.Units[next(tokens, i-1)]
		if hasUnit {
			i++
		} else {
			unit = 1
		}

		total += value * uint64(unit)
		if total > math.MaxUint32 {
			return 0, 0, ReasonOverflow
		}
		groups++
		if !hasUnit {
			break
		}
	}
	if groups == 0 {
		return 0, 0, ReasonMissingDuration
	}
	return uint32(total), i, ""
}

// number reads one number starting at tokens[i] and returns its value and
// the count of tokens consumed.
func (p *Parser) number(tokens []string, i int) (uint64, int, string) {
	tok := tokens[i]
	if looksNumeric(tok) {
		if !isDigits(tok) {
			return 0, 0, ReasonBadNumber
		}
		v, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return 0, 0, ReasonOverflow
		}
		return v, 1, ""
	}
	if tok == "a" || tok == "an" {
		if _, ok := p.vocab.Units[next(tokens, i)]; ok {
			return 1, 1, ""
		}
		return 0, 0, ""
	}

	var total, current uint64
	n := 0
	for j := i; j < len(tokens); j++ {
		w := tokens[j]
		if v, ok := smallNumbers[w]; ok {
			current += v
		} else if v, ok := tens[w]; ok {
			current += v
		} else if w == "hundred" {
			if current == 0 {
				current = 1
			}
			current *= 100
		} else if w == "thousand" {
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
		} else if w == "and" && n > 0 && isNumberWord(next(tokens, j)) {
			// "one hundred and twenty"
		} else {
			break
		}
		n++
		if total+current > math.MaxUint32 {
			return 0, 0, ReasonOverflow
		}
	}
	return total + current, n, ""
}

func next(tokens []string, i int) string {
	if i+1 < len(tokens) {
		return tokens[i+1]
	}
	return ""
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, punctuation)
		if f == "" {
			continue
		}
		if strings.Contains(f, "-") && !looksNumeric(f) {
			parts := strings.Split(f, "-")
			if allNumberWords(parts) {
				tokens = append(tokens, parts...)
				continue
			}
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func allNumberWords(parts []string) bool {
	for _, p := range parts {
		if !isNumberWord(p) {
			return false
		}
	}
	return len(parts) > 0
}

func isDigits(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}

// looksNumeric reports whether tok was meant as a number, e.g. "12", "-5",
// "3.5" or "12x".
func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	if c == '-' || c == '+' {
		return len(tok) > 1 && tok[1] >= '0' && tok[1] <= '9'
	}
	return c >= '0' && c <= '9'
}
