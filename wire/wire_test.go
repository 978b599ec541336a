package wire

import "testing"

func TestParseEnd(t *testing.T) {
	msg, err := Parse("[end 3]")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindEnd || msg.Replicate != 3 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseEmpty(t *testing.T) {
	msg, err := Parse("[5]")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindEmpty || msg.Replicate != 5 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseError(t *testing.T) {
	msg, err := Parse("[error] something broke")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindError || msg.Text != "something broke" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseProgress(t *testing.T) {
	msg, err := Parse("[progress 42]")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindProgress || msg.Step != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseDatum(t *testing.T) {
	msg, err := Parse("[7] age=3\theight=1.5")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindDatum || msg.Replicate != 7 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Fields["age"] != "3" || msg.Fields["height"] != "1.5" {
		t.Fatalf("unexpected fields: %+v", msg.Fields)
	}
}

func TestParseUnrecognizedLineFails(t *testing.T) {
	if _, err := Parse("not a wire line"); err == nil {
		t.Fatal("expected InvalidWire")
	}
}

func TestFormatProgressIsAbsolute(t *testing.T) {
	if got := FormatProgress(9); got != "[progress 9]\n" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestFormatDatumSanitizesTabsAndNewlines(t *testing.T) {
	got := FormatDatum(1, map[string]string{"note": "a\tb\nc"})
	if got != "[1] note=a b c\n" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRoundTripDatum(t *testing.T) {
	rendered := FormatDatum(2, map[string]string{"x": "1", "y": "2"})
	msg, err := Parse(rendered[:len(rendered)-1]) // strip trailing newline
	if err != nil {
		t.Fatal(err)
	}
	if msg.Replicate != 2 || msg.Fields["x"] != "1" || msg.Fields["y"] != "2" {
		t.Fatalf("unexpected round trip: %+v", msg)
	}
}
