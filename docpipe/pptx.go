package docpipe

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptx parses a .pptx file by reading each ppt/slides/slideN.xml in
// slide order. One section per shape; text paragraphs inside a shape are
// joined by newlines.
func extractPptx(path string) (string, []Section, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	type slideFile struct {
		nr   int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range r.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		nr, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{nr: nr, file: f})
	}
	if len(slides) == 0 {
		return "", nil, fmt.Errorf("no slides found in archive")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].nr < slides[j].nr })

	var sections []Section
	var title string
	for _, s := range slides {
		shapeTexts, err := extractSlideShapes(s.file)
		if err != nil {
			return "", nil, fmt.Errorf("slide %d: %w", s.nr, err)
		}
		for _, text := range shapeTexts {
			if title == "" {
				title = firstLine(text)
			}
			sections = append(sections, Section{
				Text: text,
				Type: "shape",
				Metadata: map[string]string{
					"slide": strconv.Itoa(s.nr),
				},
			})
		}
	}

	return title, sections, nil
}

// extractSlideShapes walks one slide's DrawingML and returns the text of
// each shape (sp, graphicFrame) holding non-empty text, in slide order.
func extractSlideShapes(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var shapes []string
	var shape strings.Builder // accumulated paragraphs of the current shape
	var para strings.Builder  // current <a:p> paragraph
	var inText bool           // inside an <a:t> run
	depth := 0

	flushPara := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		if shape.Len() > 0 {
			shape.WriteByte('\n')
		}
		shape.WriteString(text)
	}
	flushShape := func() {
		flushPara()
		if text := shape.String(); text != "" {
			shapes = append(shapes, text)
		}
		shape.Reset()
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err != io.EOF {
				return nil, err
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return nil, fmt.Errorf("element nesting depth exceeds %d", maxXMLDepth)
			}
			if t.Name.Local == "t" {
				inText = true
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushPara()
			case "sp", "graphicFrame":
				flushShape()
			}
		}
	}
	// Text outside a recognized shape container (rare) still counts.
	flushShape()

	return shapes, nil
}
