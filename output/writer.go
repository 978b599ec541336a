package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/stepper"
)

// OutputWriter is a generic per-row sink; T is normally stepper.ExportRow
// but is kept generic so the same plumbing (worker pool, stream
// strategies) serves any serializable record type, e.g. a future
// debug/progress stream.
type OutputWriter[T any] interface {
	Write(row T) error
	Close() error
}

// StreamStrategy opens the underlying byte sink a writer serializes rows
// into, given an already-resolved destination string (no placeholders
// left). File, minio, stdout, and memory targets each implement this.
type StreamStrategy interface {
	Open(resolved string) (io.WriteCloser, error)
}

// CSVWriter serializes ExportRows as CSV, one file per replicate (the
// stream is opened lazily on the first row for each replicate, since the
// column set is only known once the first row arrives).
type CSVWriter struct {
	Target   Target
	Strategy StreamStrategy
	User     string
	Editor   string
	Tags     map[string]string

	mu      sync.Mutex
	streams map[int]*csvStream
}

type csvStream struct {
	w       io.WriteCloser
	csv     *csv.Writer
	columns []string
}

// CSVWriterOption configures a CSVWriter's §4.7 template identity: the
// {user}/{editor} bindings and any custom {tag} values a target's path may
// reference.
type CSVWriterOption func(*CSVWriter)

// WithUser sets the {user} template substitution.
func WithUser(user string) CSVWriterOption { return func(w *CSVWriter) { w.User = user } }

// WithEditor sets the {editor} template substitution.
func WithEditor(editor string) CSVWriterOption { return func(w *CSVWriter) { w.Editor = editor } }

// WithTags registers custom {tag} template substitutions (--custom-tag).
func WithTags(tags map[string]string) CSVWriterOption {
	return func(w *CSVWriter) { w.Tags = tags }
}

// NewCSVWriter constructs a CSVWriter against target, opened through
// strategy.
func NewCSVWriter(target Target, strategy StreamStrategy, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{Target: target, Strategy: strategy, streams: map[int]*csvStream{}}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *CSVWriter) Write(row stepper.ExportRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.streams[row.Replicate]
	if !ok {
		resolved, err := w.Target.Resolve(TemplateVars{
			Replicate: row.Replicate,
			User:      w.User,
			Editor:    w.Editor,
			Tags:      w.Tags,
		})
		if err != nil {
			return err
		}
		stream, err := w.Strategy.Open(resolved)
		if err != nil {
			return fmt.Errorf("output: open %s: %w", resolved, err)
		}
		columns := sortedColumns(row.Attrs)
		cw := csv.NewWriter(stream)
		header := append([]string{"step", "type", "key"}, columns...)
		if err := cw.Write(header); err != nil {
			return err
		}
		s = &csvStream{w: stream, csv: cw, columns: columns}
		w.streams[row.Replicate] = s
	}

	record := make([]string, 0, len(s.columns)+3)
	record = append(record, fmt.Sprintf("%d", row.Step), row.TypeName, row.Key.String())
	for _, col := range s.columns {
		if v, ok := row.Attrs[col]; ok {
			record = append(record, v.String())
		} else {
			record = append(record, "")
		}
	}
	if err := s.csv.Write(record); err != nil {
		return err
	}
	s.csv.Flush()
	return s.csv.Error()
}

func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, s := range w.streams {
		s.csv.Flush()
		if err := s.w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func sortedColumns(attrs map[string]values.EngineValue) []string {
	cols := make([]string, 0, len(attrs))
	for k := range attrs {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// CombinedWriter routes each ExportRow to the OutputWriter registered for
// its entity type name, falling back to a default writer for any type
// without a specific route (§4.7's per-entity-kind routing).
type CombinedWriter struct {
	byType   map[string]stepper.Exporter
	fallback stepper.Exporter
}

// NewCombinedWriter constructs a CombinedWriter with fallback as the route
// for any type not registered via Route.
func NewCombinedWriter(fallback stepper.Exporter) *CombinedWriter {
	return &CombinedWriter{byType: map[string]stepper.Exporter{}, fallback: fallback}
}

// Route registers writer as the destination for every row whose TypeName
// is typeName.
func (c *CombinedWriter) Route(typeName string, writer stepper.Exporter) {
	c.byType[typeName] = writer
}

func (c *CombinedWriter) Export(row stepper.ExportRow) error {
	if w, ok := c.byType[row.TypeName]; ok {
		return w.Export(row)
	}
	if c.fallback != nil {
		return c.fallback.Export(row)
	}
	return nil
}

// Close closes every registered writer and the fallback, returning the
// first error encountered.
func (c *CombinedWriter) Close() error {
	var firstErr error
	closeOne := func(e stepper.Exporter) {
		if closer, ok := e.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	for _, w := range c.byType {
		closeOne(w)
	}
	closeOne(c.fallback)
	return firstErr
}

// exportAdapter adapts an OutputWriter[stepper.ExportRow] to
// stepper.Exporter (identical method set today, kept as a distinct type
// so CombinedWriter's map value type doesn't hard-depend on the generic
// writer's type parameter).
type exportAdapter struct {
	w OutputWriter[stepper.ExportRow]
}

func (a exportAdapter) Export(row stepper.ExportRow) error { return a.w.Write(row) }
func (a exportAdapter) Close() error                       { return a.w.Close() }

// AsExporter adapts any OutputWriter[stepper.ExportRow] to stepper.Exporter.
func AsExporter(w OutputWriter[stepper.ExportRow]) stepper.Exporter { return exportAdapter{w: w} }
