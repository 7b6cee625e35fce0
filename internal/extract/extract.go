package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Paper is the text and metadata pulled from one PDF file.
type Paper struct {
	Text    string
	Title   string
	Authors string
}

// FromFile reads a PDF from disk and returns its plain text plus whatever
// title/author metadata the document carries. Missing metadata is not an
// error; empty strings mean "unknown".
func FromFile(path string) (Paper, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return Paper{}, fmt.Errorf("unsupported file type: %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Paper{}, fmt.Errorf("read pdf %s: %w", filepath.Base(path), err)
	}
	text, err := extractText(data)
	if err != nil {
		return Paper{}, fmt.Errorf("extract pdf text: %w", err)
	}
	title, authors := extractMetadata(data)
	return Paper{Text: text, Title: title, Authors: authors}, nil
}

func extractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractMetadata best-effort reads the document Info dictionary. The pdf
// package panics on malformed values, so failures of any kind degrade to
// empty results.
func extractMetadata(data []byte) (title, authors string) {
	defer func() {
		if r := recover(); r != nil {
			title, authors = "", ""
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ""
	}
	info := reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return "", ""
	}
	return stringValue(info.Key("Title")), stringValue(info.Key("Author"))
}

func stringValue(v pdf.Value) string {
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}
