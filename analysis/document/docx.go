package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

var errBodyTooLarge = fmt.Errorf("%w: %s exceeds size limit", ErrUnsupported, docxBody)

// extractDOCX reads the main document part: text runs, tabs and breaks, one line per paragraph.
// maxBody caps the decompressed size of that part; 0 means no cap.
func extractDOCX(data []byte, maxBody int64) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("docx: %s not found: %w", docxBody, ErrUnsupported)
	}
	if maxBody > 0 && body.UncompressedSize64 > uint64(maxBody) {
		return "", fmt.Errorf("docx: %w", errBodyTooLarge)
	}
	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("docx: %w", err)
	}
	defer rc.Close()

	// The size header is written by whoever built the archive; count what actually inflates.
	var src io.Reader = rc
	if maxBody > 0 {
		src = &cappedReader{r: rc, left: maxBody}
	}

	var (
		b      strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(src)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

type cappedReader struct {
	r    io.Reader
	left int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, errBodyTooLarge
	}
	return n, err
}
