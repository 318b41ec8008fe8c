package ocr

import (
	"context"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor([]string{"eng"})

	result, err := e.Extract(context.Background(), []byte("  meter reading 320 kWh \n"), ".txt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Text != "meter reading 320 kWh" {
		t.Fatalf("expected trimmed text, got %q", result.Text)
	}
	if result.Confidence != 1 {
		t.Fatalf("expected confidence 1 for digital text, got %f", result.Confidence)
	}
}

func TestExtractRejectsUnsupportedType(t *testing.T) {
	e := NewExtractor(nil)

	if _, err := e.Extract(context.Background(), []byte("x"), ".exe"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := e.Extract(context.Background(), nil, ".txt"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestExtractRejectsBinaryTextFile(t *testing.T) {
	e := NewExtractor(nil)

	if _, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0x00}, ".txt"); err == nil {
		t.Fatalf("expected error for non-UTF-8 text payload")
	}
}

func TestStripDocxXML(t *testing.T) {
	raw := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Hello</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>World</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	got := stripDocxXML(raw)
	want := "Hello\nWorld"
	if got != want {
		t.Fatalf("stripDocxXML = %q, want %q", got, want)
	}
	if strings.Contains(got, "<") {
		t.Fatalf("expected markup removed, got %q", got)
	}
}
