package config

import (
	"fmt"
	"testing"

	"github.com/schmidtdse/joshsim/core/values"
)

func TestLoadParsesIntAndDecimalWithUnits(t *testing.T) {
	src := "# a comment\nyears = 5 year\nrate = 0.5\n"
	cfg, err := Load(src)
	if err != nil {
		t.Fatal(err)
	}

	yearsVal, ok := cfg.Get("years")
	if !ok {
		t.Fatal("expected years to be bound")
	}
	if _, ok := yearsVal.(values.Int); !ok {
		t.Fatalf("expected Int, got %T", yearsVal)
	}

	rateVal, ok := cfg.Get("rate")
	if !ok {
		t.Fatal("expected rate to be bound")
	}
	dec, ok := rateVal.(values.Decimal)
	if !ok {
		t.Fatalf("expected Decimal, got %T", rateVal)
	}
	if dec.V != 0.5 {
		t.Fatalf("expected 0.5, got %v", dec.V)
	}
}

func TestLoadSkipsBlankLinesAndComments(t *testing.T) {
	src := "\n# header\n\nx = 1\n\n# trailer\n"
	cfg, err := Load(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Names()) != 1 {
		t.Fatalf("expected exactly one variable, got %v", cfg.Names())
	}
}

func TestLoadRejectsMalformedValue(t *testing.T) {
	_, err := Load("x = not-a-number\n")
	if err == nil {
		t.Fatal("expected ConfigError")
	}
}

func TestLoadReportsLineAndColumn(t *testing.T) {
	_, err := Load("good = 1\nbad = nope\n")
	if err == nil {
		t.Fatal("expected error on second line")
	}
	var line, col int
	if _, scanErr := fmt.Sscanf(err.Error(), "%d:%d:", &line, &col); scanErr != nil || line != 2 || col <= 0 {
		t.Fatalf("expected error positioned at line 2 with a column, got %q", err)
	}
}

func TestDiscoverSortsAndFormatsDefaults(t *testing.T) {
	lines := Discover([]DiscoveredConfigVar{
		{Name: "zeta", HasDefault: false},
		{Name: "alpha", HasDefault: true, DefaultValue: "1 m"},
	})
	if len(lines) != 2 || lines[0] != "alpha(1 m)" || lines[1] != "zeta" {
		t.Fatalf("unexpected discovery output: %v", lines)
	}
}
