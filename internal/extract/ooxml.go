package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const docxBodyPart = "word/document.xml"

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// paragraph collects the text of a w:p or a:p element. Runs are concatenated,
// tabs and breaks are kept as whitespace. Paragraph properties (w:pPr, a:pPr)
// are skipped so tab-stop definitions do not become text.
type paragraph struct {
	Text string
}

func (p *paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	inText := false
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "pPr" {
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if depth == 0 {
				p.Text = b.String()
				return nil
			}
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}

type docxDocument struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type pptxSlide struct {
	Tree struct {
		Shapes []pptxShape `xml:"sp"`
	} `xml:"cSld>spTree"`
}

// pptxShape is a p:sp. A shape without a text body still contributes an
// empty line.
type pptxShape struct {
	TextBody *struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"txBody"`
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	f := findFile(zr, docxBodyPart)
	if f == nil {
		return "", fmt.Errorf("%s not found", docxBodyPart)
	}

	var doc docxDocument
	if err := decodePart(f, &doc); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		lines = append(lines, p.Text)
	}
	return strings.Join(lines, "\n"), nil
}

func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}

	type numbered struct {
		n int
		f *zip.File
	}
	var slides []numbered
	for _, f := range zr.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, numbered{n: n, f: f})
	}
	if len(slides) == 0 {
		if findFile(zr, "ppt/presentation.xml") == nil {
			return "", fmt.Errorf("not a presentation")
		}
		return "", nil
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var texts []string
	for _, s := range slides {
		var slide pptxSlide
		if err := decodePart(s.f, &slide); err != nil {
			return "", err
		}
		for _, shape := range slide.Tree.Shapes {
			if shape.TextBody == nil {
				texts = append(texts, "")
				continue
			}
			paras := make([]string, 0, len(shape.TextBody.Paragraphs))
			for _, p := range shape.TextBody.Paragraphs {
				paras = append(paras, p.Text)
			}
			texts = append(texts, strings.Join(paras, "\n"))
		}
	}
	return strings.Join(texts, "\n"), nil
}

func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	if err := xml.NewDecoder(io.LimitReader(rc, maxPartSize)).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", f.Name, err)
	}
	return nil
}

const maxPartSize = 64 << 20
