package main

import "testing"

func TestParseDataBindingsExpandsLiteralPaths(t *testing.T) {
	bindings, err := parseDataBindings([]string{"precip=testdata/nope.tif"})
	if err != nil {
		t.Fatal(err)
	}
	if len(bindings) != 1 || bindings[0].Name != "precip" {
		t.Fatalf("unexpected bindings: %+v", bindings)
	}
	if len(bindings[0].Files) != 1 || bindings[0].Files[0] != "testdata/nope.tif" {
		t.Fatalf("expected glob miss to fall back to the literal path, got %+v", bindings[0].Files)
	}
}

func TestParseDataBindingsRejectsMalformedEntry(t *testing.T) {
	if _, err := parseDataBindings([]string{"no-equals-sign"}); err == nil {
		t.Fatal("expected error for malformed --data entry")
	}
}

func TestParseCustomTagsRejectsReservedKey(t *testing.T) {
	if _, err := parseCustomTags([]string{"replicate=3"}); err == nil {
		t.Fatal("expected error for reserved custom-tag key")
	}
}

func TestParseCustomTagsAcceptsOrdinaryKeys(t *testing.T) {
	tags, err := parseCustomTags([]string{"scenario=drought", "run=1"})
	if err != nil {
		t.Fatal(err)
	}
	if tags["scenario"] != "drought" || tags["run"] != "1" {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}
