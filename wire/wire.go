// Package wire implements the line-oriented protocol used for remote
// leader/worker coordination (§4.8): newline-terminated records, each one
// of five patterns, parsed by trying each strategy in a fixed order and
// taking the first non-NO_MATCH outcome.
package wire

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/schmidtdse/joshsim/internal/errs"
)

// Kind tags the parsed line's variant.
type Kind int

const (
	KindEnd Kind = iota
	KindEmpty
	KindError
	KindProgress
	KindDatum
)

// Message is a parsed wire line.
type Message struct {
	Kind       Kind
	Step       int               // KindProgress
	Replicate  int               // KindEnd, KindDatum, KindEmpty
	Text       string            // KindError
	Fields     map[string]string // KindDatum
}

// Parse dispatches line to each strategy in fixed order (end, empty,
// error, progress, datum); the first match wins. An unparseable line
// returns InvalidWire.
func Parse(line string) (Message, error) {
	for _, strategy := range []func(string) (Message, bool){
		parseEnd, parseEmpty, parseError, parseProgress, parseDatum,
	} {
		if msg, ok := strategy(line); ok {
			return msg, nil
		}
	}
	return Message{}, errs.New(errs.InvalidWire, "unparseable wire line: %q", line)
}

func parseEnd(line string) (Message, bool) {
	n, ok := bracketedInt(line, "end")
	if !ok {
		return Message{}, false
	}
	return Message{Kind: KindEnd, Replicate: n}, true
}

func parseEmpty(line string) (Message, bool) {
	if !strings.HasPrefix(line, "[") {
		return Message{}, false
	}
	closeIdx := strings.Index(line, "]")
	if closeIdx < 0 || closeIdx != len(line)-1 {
		return Message{}, false
	}
	inner := line[1:closeIdx]
	n, err := strconv.Atoi(inner)
	if err != nil {
		return Message{}, false
	}
	return Message{Kind: KindEmpty, Replicate: n}, true
}

func parseError(line string) (Message, bool) {
	const prefix = "[error] "
	if !strings.HasPrefix(line, prefix) {
		return Message{}, false
	}
	return Message{Kind: KindError, Text: line[len(prefix):]}, true
}

func parseProgress(line string) (Message, bool) {
	n, ok := bracketedInt(line, "progress")
	if !ok {
		return Message{}, false
	}
	return Message{Kind: KindProgress, Step: n}, true
}

func parseDatum(line string) (Message, bool) {
	if !strings.HasPrefix(line, "[") {
		return Message{}, false
	}
	closeIdx := strings.Index(line, "]")
	if closeIdx < 0 {
		return Message{}, false
	}
	n, err := strconv.Atoi(line[1:closeIdx])
	if err != nil {
		return Message{}, false
	}
	rest := strings.TrimPrefix(line[closeIdx+1:], " ")
	fields := map[string]string{}
	for _, part := range strings.Split(rest, "\t") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Message{}, false
		}
		fields[kv[0]] = kv[1]
	}
	return Message{Kind: KindDatum, Replicate: n, Fields: fields}, true
}

// bracketedInt matches "[word N]" and returns N.
func bracketedInt(line, word string) (int, bool) {
	prefix := "[" + word + " "
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	if !strings.HasSuffix(line, "]") {
		return 0, false
	}
	inner := line[len(prefix) : len(line)-1]
	n, err := strconv.Atoi(inner)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatProgress renders a progress line. step is always the absolute
// count, never an increment (§4.8).
func FormatProgress(step int) string { return fmt.Sprintf("[progress %d]\n", step) }

// FormatEnd renders a replicate-complete line.
func FormatEnd(replicate int) string { return fmt.Sprintf("[end %d]\n", replicate) }

// FormatError renders an error line.
func FormatError(message string) string {
	return fmt.Sprintf("[error] %s\n", strings.ReplaceAll(message, "\n", " "))
}

// FormatDatum renders a tab-delimited key=value payload for replicate.
func FormatDatum(replicate int, fields map[string]string) string {
	if len(fields) == 0 {
		return fmt.Sprintf("[%d]\n", replicate)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+sanitize(fields[k]))
	}
	return fmt.Sprintf("[%d] %s\n", replicate, strings.Join(parts, "\t"))
}

// FormatRow renders the structured row format used for datum payloads:
// "name:key1=value1\tkey2=value2...", with tabs/newlines in values
// replaced by spaces before serialization.
func FormatRow(name string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+sanitize(fields[k]))
	}
	return name + ":" + strings.Join(parts, "\t")
}

func sanitize(v string) string {
	v = strings.ReplaceAll(v, "\t", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	return v
}

// RewriteReplicate rewrites msg's replicate number, used by a leader
// aggregating across workers whose local replicate numbering doesn't
// match the leader's global numbering.
func RewriteReplicate(msg Message, replicate int) Message {
	msg.Replicate = replicate
	return msg
}
