package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docxXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>The cat </w:t></w:r><w:r><w:t xml:space="preserve">sat on the mat.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t><w:tab/><w:t>paragraph</w:t></w:r></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>table cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p/>
    <w:p><w:hyperlink><w:r><w:t>linked</w:t></w:r></w:hyperlink></w:p>
  </w:body>
</w:document>`

func slideXML(texts ...string) string {
	var shapes strings.Builder
	for _, text := range texts {
		var paras strings.Builder
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintf(&paras, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, line)
		}
		fmt.Fprintf(&shapes, `<p:sp><p:txBody>%s</p:txBody></p:sp>`, paras.String())
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>` + shapes.String() + `<p:pic/></p:spTree></p:cSld>
</p:sld>`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"pdf", FormatPDF, false},
		{".DOCX", FormatDOCX, false},
		{" pptx ", FormatPPTX, false},
		{"txt", FormatTXT, false},
		{"odt", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("notes/Lecture 1.PPTX")
	require.NoError(t, err)
	assert.Equal(t, FormatPPTX, f)

	_, err = FormatFromFilename("README")
	assert.Error(t, err)
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "PDF", FormatPDF.Label())
	assert.Equal(t, "TXT", FormatTXT.Label())
}

func TestExtractTXT(t *testing.T) {
	text, err := Extract([]byte("The cat sat on the mat."), FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "The cat sat on the mat.", text)

	_, err = Extract([]byte{0xff, 0xfe, 0xfd}, FormatTXT)
	var extractErr *Error
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, FormatTXT, extractErr.Format)
}

func TestExtractDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   docxXML,
	})

	text, err := Extract(data, FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "The cat sat on the mat.\nSecond\tparagraph\n\nlinked", text)
}

func TestExtractDOCX_IgnoresTabStops(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:pStyle w:val="TOC1"/><w:tabs><w:tab w:val="left" w:pos="440"/><w:tab w:val="right" w:leader="dot" w:pos="9350"/></w:tabs></w:pPr><w:r><w:t>Heading</w:t></w:r><w:r><w:tab/><w:t>3</w:t></w:r></w:p>
<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr></w:p>
</w:body></w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": doc})

	text, err := Extract(data, FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Heading\t3\n", text)
}

func TestExtractDOCX_Invalid(t *testing.T) {
	_, err := Extract([]byte("plain text"), FormatDOCX)
	assert.Error(t, err)

	_, err = Extract(buildZip(t, map[string]string{"other.xml": "<x/>"}), FormatDOCX)
	assert.Error(t, err)

	_, err = Extract(buildZip(t, map[string]string{"word/document.xml": "<w:document><w:body>"}), FormatDOCX)
	assert.Error(t, err)
}

func TestExtractPPTX_SlideOrder(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/presentation.xml":             `<p:presentation/>`,
		"ppt/slides/slide10.xml":           slideXML("ten"),
		"ppt/slides/slide2.xml":            slideXML("two"),
		"ppt/slides/slide1.xml":            slideXML("Title", "line one\nline two"),
		"ppt/slides/_rels/slide1.xml.rels": `<Relationships/>`,
	})

	text, err := Extract(data, FormatPPTX)
	require.NoError(t, err)
	assert.Equal(t, "Title\nline one\nline two\ntwo\nten", text)
}

func TestExtractPPTX_IgnoresTabStops(t *testing.T) {
	slide := `<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree>
<p:sp><p:txBody><a:bodyPr/><a:p><a:pPr><a:tabLst><a:tab pos="914400" algn="l"/></a:tabLst></a:pPr><a:r><a:t>Title</a:t></a:r></a:p></p:txBody></p:sp>
</p:spTree></p:cSld></p:sld>`
	data := buildZip(t, map[string]string{"ppt/slides/slide1.xml": slide})

	text, err := Extract(data, FormatPPTX)
	require.NoError(t, err)
	assert.Equal(t, "Title", text)
}

func TestExtractPPTX_ShapeWithoutTextBody(t *testing.T) {
	slide := `<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree>
<p:sp><p:txBody><a:p><a:r><a:t>first</a:t></a:r></a:p></p:txBody></p:sp>
<p:sp><p:spPr/></p:sp>
<p:pic/>
<p:sp><p:txBody><a:p><a:r><a:t>last</a:t></a:r></a:p></p:txBody></p:sp>
</p:spTree></p:cSld></p:sld>`
	data := buildZip(t, map[string]string{"ppt/slides/slide1.xml": slide})

	text, err := Extract(data, FormatPPTX)
	require.NoError(t, err)
	assert.Equal(t, "first\n\nlast", text)
}

func TestExtractPPTX_Empty(t *testing.T) {
	text, err := Extract(buildZip(t, map[string]string{"ppt/presentation.xml": `<p:presentation/>`}), FormatPPTX)
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = Extract(buildZip(t, map[string]string{"word/document.xml": docxXML}), FormatPPTX)
	assert.Error(t, err)
}

func TestExtractPDF_RejectsNonPDF(t *testing.T) {
	_, err := Extract([]byte("not a pdf"), FormatPDF)
	var extractErr *Error
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, FormatPDF, extractErr.Format)
	assert.Contains(t, err.Error(), "not a PDF")
}

func TestExtractPDF(t *testing.T) {
	text, err := Extract(minimalPDF("Hello World"), FormatPDF)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello World")
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract([]byte("x"), Format("odt"))
	assert.Error(t, err)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectMIME(minimalPDF("x")))
	assert.True(t, strings.HasPrefix(DetectMIME([]byte("hello")), "text/plain"))
}

// minimalPDF builds a one-page PDF with a correct cross-reference table.
func minimalPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
