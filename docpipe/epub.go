package docpipe

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// epubDecoder is the built-in EBookDecoder. An .epub is a zip of XHTML
// documents ordered by the OPF spine; each spine document becomes one
// section. Section markup is converted to Markdown-flavored text so
// emphasis and headings survive as readable plain text; if conversion
// fails for a document, a plain DOM text walk is used instead.
type epubDecoder struct {
	html *htmlDecoder
	conv *converter.Converter
}

func newEPUBDecoder(html *htmlDecoder) *epubDecoder {
	return &epubDecoder{
		html: html,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

type epubContainer struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

type epubPackage struct {
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// DecodeEPUB extracts per-section text in spine order. Individual broken
// sections are skipped; the book fails only when no section yields text.
func (d *epubDecoder) DecodeEPUB(filePath string) ([]Section, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var container epubContainer
	if err := unmarshalZipEntry(r, "META-INF/container.xml", &container); err != nil {
		return nil, err
	}
	if len(container.Rootfiles.Rootfile) == 0 {
		return nil, fmt.Errorf("container.xml has no rootfile")
	}
	opfPath := container.Rootfiles.Rootfile[0].FullPath

	var pkg epubPackage
	if err := unmarshalZipEntry(r, opfPath, &pkg); err != nil {
		return nil, err
	}

	hrefs := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		if strings.Contains(item.MediaType, "html") {
			hrefs[item.ID] = item.Href
		}
	}

	opfDir := path.Dir(opfPath)
	var sections []Section
	for _, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		name := href
		if opfDir != "." {
			name = path.Join(opfDir, href)
		}
		text := d.sectionText(r, name)
		if text == "" {
			continue
		}
		sections = append(sections, Section{
			Text: text,
			Type: "section",
			Metadata: map[string]string{
				"href": href,
			},
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no readable sections in e-book")
	}
	return sections, nil
}

// sectionText extracts one spine document's text. Errors are swallowed:
// a corrupt section must not invalidate the rest of the book.
func (d *epubDecoder) sectionText(r *zip.ReadCloser, name string) string {
	rc, err := zipEntry(r, name)
	if err != nil {
		return ""
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}

	if md, err := d.conv.ConvertString(string(data)); err == nil {
		if text := strings.TrimSpace(md); text != "" {
			return text
		}
	}

	// Fallback: plain DOM text walk.
	_, secs, err := d.html.DecodeHTML(data)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(joinSections(secs, "\n"))
}
