package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// ErrUnsupportedFormat is wrapped in a DocumentLoadError for unknown extensions.
var ErrUnsupportedFormat = errors.New("only PDF and TXT files are supported")

// Load extracts the text of the document at path.
func Load(path string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		text, err = loadText(path)
	case ".pdf":
		text, err = loadPDF(path)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return "", &domain.DocumentLoadError{Path: path, Err: err}
	}
	return text, nil
}

func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return buf.String(), nil
}
