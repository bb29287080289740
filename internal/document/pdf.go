package document

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
)

// IsPDF reports whether the blob carries the PDF magic number.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// ExtractPDFText pulls the plain text out of a PDF blob, page by page.
func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Log error but continue with other pages
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}

	return text, nil
}

// ExtractText dispatches text extraction on the file extension. Supported
// formats are .pdf, .docx and .txt.
func ExtractText(data []byte, filename string) (string, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return ExtractPDFText(data)
	case ".docx":
		return ExtractDocxText(data)
	case ".txt", "":
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported file extension %s", path.Ext(filename))
}

// CleanText normalizes extracted text: trimmed lines, no blank runs.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
