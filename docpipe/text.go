package docpipe

import (
	"os"
	"strings"
)

// extractPlain reads a .txt/.md file as-is, tolerating invalid byte
// sequences. The text is kept verbatim (Markdown markers included) so the
// downstream consumer sees the document exactly as written.
func extractPlain(path string) (string, []Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	text := strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
	if text == "" {
		return "", nil, nil
	}

	return firstLine(text), []Section{{
		Text: text,
		Type: "paragraph",
	}}, nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
