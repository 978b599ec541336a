package output

import (
	"strings"
	"testing"

	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/stepper"
)

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	mem := NewMemoryStrategy()
	target, err := ParseTarget("memory://out-{replicate}.csv")
	if err != nil {
		t.Fatal(err)
	}
	w := NewCSVWriter(target, mem)

	row := stepper.ExportRow{
		Replicate: 0,
		Step:      0,
		TypeName:  "Forest",
		Key:       values.GeoKey{Lat: 1, Lon: 2},
		Attrs:     map[string]values.EngineValue{"moisture": values.Decimal{V: 0.5, U: units.Count}},
	}
	if err := w.Write(row); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	content := string(mem.Bytes("out-0.csv"))
	if !strings.Contains(content, "moisture") {
		t.Fatalf("expected header to include moisture column, got %q", content)
	}
	if !strings.Contains(content, "Forest") {
		t.Fatalf("expected row to include type name, got %q", content)
	}
}

type captureExporter struct {
	rows []stepper.ExportRow
}

func (c *captureExporter) Export(row stepper.ExportRow) error {
	c.rows = append(c.rows, row)
	return nil
}

func TestCombinedWriterRoutesByTypeName(t *testing.T) {
	trees := &captureExporter{}
	patches := &captureExporter{}
	combined := NewCombinedWriter(patches)
	combined.Route("Tree", trees)

	if err := combined.Export(stepper.ExportRow{TypeName: "Tree"}); err != nil {
		t.Fatal(err)
	}
	if err := combined.Export(stepper.ExportRow{TypeName: "Forest"}); err != nil {
		t.Fatal(err)
	}
	if len(trees.rows) != 1 || len(patches.rows) != 1 {
		t.Fatalf("expected one row routed to each writer, got trees=%d patches=%d", len(trees.rows), len(patches.rows))
	}
}

func TestAsyncExporterDeliversAllRows(t *testing.T) {
	capture := &captureExporter{}
	async, err := NewAsyncExporter(capture, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		if err := async.Export(stepper.ExportRow{Step: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := async.Close(); err != nil {
		t.Fatal(err)
	}
	if len(capture.rows) != 50 {
		t.Fatalf("expected 50 rows delivered, got %d", len(capture.rows))
	}
}
