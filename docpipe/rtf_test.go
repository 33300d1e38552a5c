package docpipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRTF_Basic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.rtf")
	rtf := `{\rtf1\ansi{\fonttbl{\f0 Arial;}}\f0 First paragraph.\par Second paragraph.\par}`
	os.WriteFile(path, []byte(rtf), 0644)

	pipe := New(Config{})
	doc, err := pipe.Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %+v", len(doc.Sections), doc.Sections)
	}
	if doc.Sections[0].Text != "First paragraph." {
		t.Errorf("paragraph 1 = %q", doc.Sections[0].Text)
	}
	if doc.Sections[1].Text != "Second paragraph." {
		t.Errorf("paragraph 2 = %q", doc.Sections[1].Text)
	}
}

func TestRTF_Escapes(t *testing.T) {
	// WHAT: Hex and unicode escapes decode to the intended characters.
	// WHY: Non-ASCII RTF text is written almost exclusively via escapes.
	dec := &rtfDecoder{}
	sections, err := dec.DecodeRTF([]byte(`{\rtf1 caf\'e9 and \u233?t\u233?}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Text != "café and été" {
		t.Errorf("decoded text = %q, want %q", sections[0].Text, "café and été")
	}
}

func TestRTF_DestinationsSkipped(t *testing.T) {
	// WHAT: Font tables, style sheets and \* groups contribute no text.
	// WHY: Destination contents are metadata, not document body.
	dec := &rtfDecoder{}
	rtf := `{\rtf1{\fonttbl{\f0\fswiss Helvetica;}}{\stylesheet{\s0 Normal;}}{\*\generator TestWriter 1.0;}Body text only.\par}`
	sections, err := dec.DecodeRTF([]byte(rtf))
	if err != nil {
		t.Fatal(err)
	}
	joined := joinSections(sections, "\n")
	if joined != "Body text only." {
		t.Errorf("expected destinations stripped, got %q", joined)
	}
	if strings.Contains(joined, "Helvetica") || strings.Contains(joined, "TestWriter") {
		t.Errorf("metadata leaked into text: %q", joined)
	}
}

func TestRTF_NotRTF(t *testing.T) {
	dec := &rtfDecoder{}
	if _, err := dec.DecodeRTF([]byte("plain text, no header")); err == nil {
		t.Fatal("expected error for non-RTF input")
	}
}
