// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Format is a supported document type.
type Format string

// Supported formats.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
	FormatTXT  Format = "txt"
)

// Formats lists every supported format in route order.
var Formats = []Format{FormatPDF, FormatDOCX, FormatPPTX, FormatTXT}

// Label is the upper-case name used in user-facing messages.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported document format %q (valid: pdf, docx, pptx, txt)", s)
}

// FormatFromFilename infers the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", fmt.Errorf("cannot infer document format from %q", name)
	}
	return ParseFormat(ext)
}

// Error reports an extraction failure for a format.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DetectMIME sniffs the content type of data.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// Extract returns the text content of data interpreted as format.
func Extract(data []byte, format Format) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &Error{Format: format, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatPPTX:
		text, err = extractPPTX(data)
	case FormatTXT:
		text, err = extractTXT(data)
	default:
		return "", &Error{Format: format, Err: fmt.Errorf("unsupported format")}
	}
	if err != nil {
		return "", &Error{Format: format, Err: err}
	}
	return text, nil
}

func extractTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	return string(data), nil
}
