package document

import (
	"bytes"
	"fmt"
	"image/png"
	"path"
	"strings"
)

// Chunk is one page image destined for a vision model request.
type Chunk struct {
	MIME string
	Data []byte
}

// BuildVisionChunks converts a resume blob to page images, capped at
// maxPages.
//
// PDFs with an extractable text layer are re-rendered as synthetic text
// pages; image-only PDFs fall back to their embedded page scans. DOCX and
// TXT go through text extraction and the same synthetic rendering.
func BuildVisionChunks(data []byte, filename string, maxPages int) ([]Chunk, error) {
	ext := strings.ToLower(path.Ext(filename))

	if ext == ".pdf" || IsPDF(data) {
		return pdfVisionChunks(data, maxPages)
	}

	text, err := ExtractText(data, filename)
	if err != nil {
		return nil, err
	}
	return textVisionChunks(text, maxPages)
}

func pdfVisionChunks(data []byte, maxPages int) ([]Chunk, error) {
	text, err := ExtractPDFText(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return textVisionChunks(text, maxPages)
	}

	// No text layer: likely a scanned document, use the embedded page
	// images directly.
	var chunks []Chunk
	for _, img := range ExtractEmbeddedJPEGs(data) {
		if len(chunks) >= maxPages {
			break
		}
		bounds := img.Bounds()
		// skip decorative fragments
		if bounds.Dx()*bounds.Dy() < 100_000 {
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			continue
		}
		chunks = append(chunks, Chunk{MIME: "image/png", Data: buf.Bytes()})
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("could not render any page to image")
	}
	return chunks, nil
}

func textVisionChunks(text string, maxPages int) ([]Chunk, error) {
	pages := PaginateText(text)
	if len(pages) > maxPages {
		pages = pages[:maxPages]
	}

	chunks := make([]Chunk, 0, len(pages))
	for _, page := range pages {
		data, err := RenderTextPage(page)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{MIME: "image/png", Data: data})
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("could not render text to images")
	}
	return chunks, nil
}
