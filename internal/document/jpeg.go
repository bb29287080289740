package document

import (
	"bytes"
	"image"
	"image/jpeg"
)

// jpeg start-of-image and end-of-image markers
var (
	jpegSOI = []byte{0xFF, 0xD8, 0xFF}
	jpegEOI = []byte{0xFF, 0xD9}
)

// ExtractEmbeddedJPEGs scans a PDF blob for DCTDecode image streams, which
// are stored as verbatim JPEG files, and returns every decodable image. This
// is how photos (headshots, scanned pages) are recovered without a full PDF
// raster pipeline.
func ExtractEmbeddedJPEGs(data []byte) []image.Image {
	var images []image.Image

	offset := 0
	for {
		start := bytes.Index(data[offset:], jpegSOI)
		if start < 0 {
			break
		}
		start += offset

		end := bytes.Index(data[start:], jpegEOI)
		if end < 0 {
			break
		}
		end += start + len(jpegEOI)

		img, err := jpeg.Decode(bytes.NewReader(data[start:end]))
		if err == nil {
			images = append(images, img)
			offset = end
			continue
		}

		// Not a decodable stream at this offset, skip past the marker.
		offset = start + len(jpegSOI)
	}

	return images
}
