package docpipe

import (
	"fmt"
	"strconv"
	"strings"
)

// rtfDecoder is the built-in RichTextDecoder: a minimal RTF reader that
// walks the token stream directly, keeping visible text and dropping
// control words, groups and non-text destinations (font tables, embedded
// pictures, style sheets). Full RTF fidelity is out of scope; the goal is
// the document's readable text in order.
type rtfDecoder struct{}

// rtfSkipDestinations are group destinations holding no document text.
var rtfSkipDestinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"object":     true,
	"header":     true,
	"footer":     true,
	"themedata":  true,
	"listtable":  true,
	"generator":  true,
}

// DecodeRTF converts RTF bytes to paragraph sections.
func (d *rtfDecoder) DecodeRTF(data []byte) ([]Section, error) {
	if !strings.HasPrefix(string(data[:min(len(data), 5)]), `{\rtf`) {
		return nil, fmt.Errorf("not an RTF document")
	}

	var sb strings.Builder
	skipDepth := 0 // depth of the group currently being skipped, 0 = none
	depth := 0
	i := 0

	for i < len(data) {
		c := data[i]
		switch c {
		case '{':
			depth++
			i++
		case '}':
			if skipDepth > 0 && depth == skipDepth {
				skipDepth = 0
			}
			depth--
			i++
		case '\\':
			word, param, consumed := rtfControlWord(data[i:])
			i += consumed
			if skipDepth > 0 {
				continue
			}
			switch word {
			case "par", "line", "sect", "page":
				sb.WriteByte('\n')
			case "tab", "cell":
				sb.WriteByte('\t')
			case "emdash", "endash":
				sb.WriteByte('-')
			case "lquote", "rquote":
				sb.WriteByte('\'')
			case "ldblquote", "rdblquote":
				sb.WriteByte('"')
			case "'":
				// \'hh hex escape, read as a Latin-1 code point.
				if b, err := strconv.ParseUint(param, 16, 8); err == nil {
					sb.WriteRune(rune(b))
				}
			case "u":
				// \uN unicode escape; the following fallback char is consumed.
				if n, err := strconv.Atoi(param); err == nil {
					if n < 0 {
						n += 65536
					}
					sb.WriteRune(rune(n))
				}
				if i < len(data) && data[i] != '\\' && data[i] != '{' && data[i] != '}' {
					i++
				}
			case "*":
				// \* marks an ignorable destination group.
				skipDepth = depth
			default:
				if rtfSkipDestinations[word] {
					skipDepth = depth
				}
			}
		case '\r', '\n':
			i++
		default:
			if skipDepth == 0 {
				sb.WriteByte(c)
			}
			i++
		}
	}

	var sections []Section
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sections = append(sections, Section{
			Text: line,
			Type: "paragraph",
		})
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("no text content in RTF")
	}
	return sections, nil
}

// rtfControlWord reads a control word or symbol starting at a backslash.
// Returns the word, its parameter (numeric or hex digits) and the number
// of bytes consumed including the backslash and an optional trailing space.
func rtfControlWord(data []byte) (word, param string, consumed int) {
	i := 1 // skip backslash
	if i >= len(data) {
		return "", "", i
	}

	// Control symbol: single non-letter character.
	c := data[i]
	if !isASCIILetter(c) {
		if c == '\'' && i+2 < len(data) {
			return "'", string(data[i+1 : i+3]), i + 3
		}
		return string(c), "", i + 1
	}

	start := i
	for i < len(data) && isASCIILetter(data[i]) {
		i++
	}
	word = string(data[start:i])

	// Optional signed numeric parameter.
	pStart := i
	if i < len(data) && data[i] == '-' {
		i++
	}
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
	}
	param = string(data[pStart:i])

	// One space after a control word is part of the word.
	if i < len(data) && data[i] == ' ' {
		i++
	}
	return word, param, i
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
