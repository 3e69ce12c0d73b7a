// Package document turns uploaded interview transcripts into plain text.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/theimaginaryfoundation/interview-helper/analysis"
)

// ErrUnsupported is returned for files that are not a transcript format we can read, or whose
// content does not match their extension.
var ErrUnsupported = errors.New("document: unsupported type")

// Kind is a supported transcript format.
type Kind string

const (
	KindDOCX Kind = "docx"
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZIP  = "application/zip"
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
)

// Extractor returns the plain text of one document.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

// Detect picks the format from the file extension and checks the sniffed content agrees.
func Detect(name string, data []byte) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mt := mimetype.Detect(data)
	switch ext {
	case ".docx":
		// Minimal archives may only sniff as a generic zip.
		if mt.Is(mimeDOCX) || mt.Is(mimeZIP) {
			return KindDOCX, nil
		}
	case ".pdf":
		if mt.Is(mimePDF) {
			return KindPDF, nil
		}
	case ".txt", ".md", ".text":
		if len(data) == 0 || mt.Is(mimeText) || utf8.Valid(data) {
			return KindText, nil
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return "", fmt.Errorf("%w: %s content is %s", ErrUnsupported, ext, mt.String())
}

// Default extracts .docx, .pdf and UTF-8 text files.
type Default struct {
	// MaxBodyBytes caps the decompressed .docx body. 0 means no cap.
	MaxBodyBytes int64
}

func (d Default) Extract(name string, data []byte) (string, error) {
	kind, err := Detect(name, data)
	if err != nil {
		return "", err
	}
	var text string
	switch kind {
	case KindDOCX:
		text, err = extractDOCX(data, d.MaxBodyBytes)
	case KindPDF:
		text, err = extractPDF(data)
	case KindText:
		text = strings.TrimPrefix(string(data), "\ufeff")
	}
	if err != nil {
		return "", fmt.Errorf("Extract %s: %w", name, err)
	}
	return normalize(text), nil
}

// normalize converts line endings and trims surrounding blank space.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// Load reads and extracts paths in order, numbering interviews from 1. A nil extractor
// selects Default, with maxBytes also capping each decompressed .docx body.
func Load(paths []string, ex Extractor, maxBytes int64) ([]analysis.RawInterview, error) {
	if ex == nil {
		ex = Default{MaxBodyBytes: maxBytes}
	}
	out := make([]analysis.RawInterview, 0, len(paths))
	for i, p := range paths {
		if maxBytes > 0 {
			st, err := os.Stat(p)
			if err != nil {
				return nil, fmt.Errorf("Load: %w", err)
			}
			if st.Size() > maxBytes {
				return nil, fmt.Errorf("Load: %s is %d bytes, limit is %d: %w", p, st.Size(), maxBytes, ErrUnsupported)
			}
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
		text, err := ex.Extract(filepath.Base(p), data)
		if err != nil {
			return nil, fmt.Errorf("Load %s: %w", p, err)
		}
		out = append(out, analysis.RawInterview{Index: i + 1, Name: filepath.Base(p), Text: text})
	}
	return out, nil
}
