// Package config loads .jshc job configuration files: a flat text format
// mapping variable names to unit-bearing scalar values, parsed with a
// small character-at-a-time state machine so parse failures carry exact
// line/column position.
package config

import (
	"sort"
	"strconv"
	"strings"

	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// state is one node of the six-state .jshc character automaton.
type state int

const (
	stateIdle state = iota
	stateComment
	stateVariableName
	stateEqualsSection
	stateValue
	stateDone
)

// JobConfig is a read-only string-to-EngineValue map loaded from a .jshc
// source. The zero value is an empty config.
type JobConfig struct {
	vars map[string]values.EngineValue
}

// Get returns the value bound to name and whether it was present.
func (c *JobConfig) Get(name string) (values.EngineValue, bool) {
	if c == nil || c.vars == nil {
		return nil, false
	}
	v, ok := c.vars[name]
	return v, ok
}

// Names returns the bound variable names in sorted order.
func (c *JobConfig) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.vars))
	for name := range c.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load parses .jshc source text into a JobConfig.
//
// Grammar: lines of `name = value [unit]`, blank lines, and `#`-prefixed
// comments. Variable names match [A-Za-z][A-Za-z0-9]*; values match
// [+-]?\d+(\.\d+)? optionally followed by unit text running to end of line.
func Load(source string) (*JobConfig, error) {
	cfg := &JobConfig{vars: map[string]values.EngineValue{}}

	st := stateIdle
	line, col := 1, 0
	var nameBuf, valueBuf strings.Builder

	emit := func() error {
		name := nameBuf.String()
		raw := strings.TrimSpace(valueBuf.String())
		nameBuf.Reset()
		valueBuf.Reset()
		if name == "" {
			return nil
		}
		value, err := parseValue(raw)
		if err != nil {
			return errs.New(errs.ConfigError, "%s", err.Error()).WithPos(line, col)
		}
		cfg.vars[name] = value
		return nil
	}

	runes := []rune(source)
	for i := 0; i <= len(runes); i++ {
		var r rune
		eof := i == len(runes)
		if !eof {
			r = runes[i]
		}
		col++

		switch st {
		case stateIdle:
			switch {
			case eof:
				st = stateDone
			case r == '#':
				st = stateComment
			case r == '\n':
				// blank line
			case r == ' ' || r == '\t' || r == '\r':
				// leading whitespace
			case isNameStart(r):
				nameBuf.WriteRune(r)
				st = stateVariableName
			default:
				return nil, errs.New(errs.ConfigError, "unexpected character %q starting a line", r).WithPos(line, col)
			}

		case stateComment:
			if eof {
				st = stateDone
			} else if r == '\n' {
				st = stateIdle
			}

		case stateVariableName:
			switch {
			case eof:
				return nil, errs.New(errs.ConfigError, "unexpected end of input in variable name").WithPos(line, col)
			case isNameCont(r):
				nameBuf.WriteRune(r)
			case r == ' ' || r == '\t':
				st = stateEqualsSection
			case r == '=':
				st = stateValue
			default:
				return nil, errs.New(errs.ConfigError, "unexpected character %q in variable name", r).WithPos(line, col)
			}

		case stateEqualsSection:
			switch {
			case eof:
				return nil, errs.New(errs.ConfigError, "unexpected end of input before '='").WithPos(line, col)
			case r == ' ' || r == '\t':
				// skip
			case r == '=':
				st = stateValue
			default:
				return nil, errs.New(errs.ConfigError, "expected '=', found %q", r).WithPos(line, col)
			}

		case stateValue:
			switch {
			case eof:
				if err := emit(); err != nil {
					return nil, err
				}
				st = stateDone
			case r == '\n':
				if err := emit(); err != nil {
					return nil, err
				}
				st = stateIdle
			default:
				valueBuf.WriteRune(r)
			}
		}

		if !eof && r == '\n' {
			line++
			col = 0
		}
		if st == stateDone {
			break
		}
	}

	return cfg, nil
}

func isNameStart(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isNameCont(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9')
}

// parseValue splits "NUMBER [unit text]" into a unit-bearing scalar.
func parseValue(raw string) (values.EngineValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errs.New(errs.ConfigError, "empty value")
	}

	i := 0
	if i < len(raw) && (raw[i] == '+' || raw[i] == '-') {
		i++
	}
	numStart := i
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i == numStart {
		return nil, errs.New(errs.ConfigError, "value %q does not start with a number", raw)
	}
	isDecimal := false
	if i < len(raw) && raw[i] == '.' {
		isDecimal = true
		i++
		fracStart := i
		for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
			i++
		}
		if i == fracStart {
			return nil, errs.New(errs.ConfigError, "value %q has a trailing decimal point", raw)
		}
	}

	numText := raw[:i]
	unitText := strings.TrimSpace(raw[i:])
	u, err := units.Parse(unitText)
	if err != nil {
		return nil, err
	}

	if isDecimal {
		f, err := strconv.ParseFloat(numText, 64)
		if err != nil {
			return nil, errs.New(errs.ConfigError, "invalid decimal %q: %v", numText, err)
		}
		return values.Decimal{V: f, U: u}, nil
	}
	n, err := strconv.ParseInt(numText, 10, 64)
	if err != nil {
		return nil, errs.New(errs.ConfigError, "invalid integer %q: %v", numText, err)
	}
	return values.Int{V: n, U: u}, nil
}
