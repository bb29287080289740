package document

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// A4 proportions at 180 dpi, matching what a rendered PDF page would be.
const (
	pageWidth  = 1240
	pageHeight = 1754

	charsPerLine = 110
	linesPerPage = 60

	pageMargin  = 40
	lineSpacing = 26
)

// PaginateText splits free-flowing text into roughly A4-sized pages of plain
// text. At least one page is always returned.
func PaginateText(text string) []string {
	words := strings.Fields(text)

	var line string
	var lines []string
	for _, w := range words {
		if len(line)+len(w)+1 > charsPerLine {
			lines = append(lines, line)
			line = w
		} else if line == "" {
			line = w
		} else {
			line += " " + w
		}
	}
	if line != "" {
		lines = append(lines, line)
	}

	var pages []string
	for i := 0; i < len(lines); i += linesPerPage {
		end := i + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, strings.Join(lines[i:end], "\n"))
	}
	if len(pages) == 0 {
		return []string{text}
	}
	return pages
}

// RenderTextPage draws a page of text onto a white A4 PNG. Vision models read
// rendered pages far more reliably than raw text mixed into the prompt when
// the source document was visual to begin with.
func RenderTextPage(text string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, pageWidth, pageHeight))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}

	maxWidth := fixed.I(pageWidth - 2*pageMargin)
	y := pageMargin + face.Ascent

	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		var line string
		flush := func() bool {
			if y > pageHeight-pageMargin {
				return false
			}
			drawer.Dot = fixed.P(pageMargin, y)
			drawer.DrawString(line)
			y += lineSpacing
			line = ""
			return true
		}

		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if drawer.MeasureString(candidate) > maxWidth && line != "" {
				if !flush() {
					break
				}
				line = w
				continue
			}
			line = candidate
		}
		if line != "" {
			flush()
		}
		if y > pageHeight-pageMargin {
			break
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
