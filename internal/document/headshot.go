package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"
	xdraw "golang.org/x/image/draw"
)

const (
	headshotMinPixels  = 5000
	headshotMaxPixels  = 2_200_000
	headshotMinAspect  = 0.66
	headshotMaxAspect  = 1.5
	headshotMinSkin    = 0.3
	headshotMinFaceArea = 0.15
	headshotBorder     = 0.2
	headshotMaxSize    = 400
)

// HeadshotFinder extracts a candidate profile photo from a resume PDF.
// It is disabled when no face cascade file is available, in which case
// FromPDF always returns empty results.
type HeadshotFinder struct {
	classifier *pigo.Pigo
}

// NewHeadshotFinder loads the pigo face cascade from cascadePath. A
// missing or unreadable cascade file is not an error; detection is just
// disabled.
func NewHeadshotFinder(cascadePath string) *HeadshotFinder {
	f := &HeadshotFinder{}

	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return f
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return f
	}

	f.classifier = classifier
	return f
}

// Enabled reports whether face detection is available.
func (f *HeadshotFinder) Enabled() bool {
	return f.classifier != nil
}

// FromPDF scans the embedded images of a PDF for a usable headshot and
// returns it as base64-encoded PNG, cropped to the face with a border,
// padded square and downscaled. Returns empty string when no suitable
// photo is found.
func (f *HeadshotFinder) FromPDF(data []byte) (string, error) {
	if f.classifier == nil {
		return "", nil
	}

	images := ExtractEmbeddedJPEGs(data)
	if len(images) == 0 {
		return "", nil
	}

	// Prefer larger images: a real headshot is usually the biggest
	// portrait-ish picture in the document.
	sort.SliceStable(images, func(i, j int) bool {
		bi, bj := images[i].Bounds(), images[j].Bounds()
		return bi.Dx()*bi.Dy() > bj.Dx()*bj.Dy()
	})

	for _, img := range images {
		bounds := img.Bounds()
		pixels := bounds.Dx() * bounds.Dy()
		if pixels < headshotMinPixels || pixels > headshotMaxPixels {
			continue
		}

		aspect := float64(bounds.Dx()) / float64(bounds.Dy())
		if aspect < headshotMinAspect || aspect > headshotMaxAspect {
			continue
		}

		if looksLikeScreenshot(img) {
			continue
		}

		face, ok := f.detectFace(img)
		if !ok {
			continue
		}

		if skinFraction(img, face) < headshotMinSkin {
			continue
		}

		encoded, err := encodeHeadshot(img, face)
		if err != nil {
			return "", fmt.Errorf("failed to encode headshot: %w", err)
		}
		return encoded, nil
	}

	return "", nil
}

// detectFace runs the cascade and returns the best detection, scored by
// size and how centered it sits in the frame. Faces covering too little
// of the image are rejected.
func (f *HeadshotFinder) detectFace(img image.Image) (image.Rectangle, bool) {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	src := pigo.ImgToNRGBA(img)
	params := pigo.CascadeParams{
		MinSize:     20,
		MaxSize:     cols,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := f.classifier.RunCascade(params, 0.0)
	dets = f.classifier.ClusterDetections(dets, 0.2)

	best := image.Rectangle{}
	bestScore := -1.0
	for _, det := range dets {
		if det.Q < 5.0 {
			continue
		}
		half := det.Scale / 2
		rect := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half)
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}

		sizeScore := float64(rect.Dx()*rect.Dy()) / float64(cols*rows)
		cx := float64(rect.Min.X+rect.Dx()/2) / float64(cols)
		cy := float64(rect.Min.Y+rect.Dy()/2) / float64(rows)
		centerScore := 1.0 - (absf(cx-0.5)+absf(cy-0.5))

		score := sizeScore*0.7 + centerScore*0.3
		if score > bestScore {
			bestScore = score
			best = rect
		}
	}

	if best.Empty() {
		return image.Rectangle{}, false
	}

	faceArea := float64(best.Dx()*best.Dy()) / float64(cols*rows)
	if faceArea < headshotMinFaceArea {
		return image.Rectangle{}, false
	}
	return best, true
}

// looksLikeScreenshot flags images that are mostly white background with
// lots of sharp edges, which is what UI screenshots and document scans
// pasted into resumes look like.
func looksLikeScreenshot(img image.Image) bool {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return false
	}

	white := 0
	edges := 0
	var prev uint32
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := (r + g + b) / 3 >> 8
			if lum > 240 {
				white++
			}
			if x > bounds.Min.X {
				diff := int64(lum) - int64(prev)
				if diff < 0 {
					diff = -diff
				}
				if diff > 60 {
					edges++
				}
			}
			prev = lum
		}
	}

	whiteFrac := float64(white) / float64(total)
	edgeFrac := float64(edges) / float64(total)
	return whiteFrac > 0.7 && edgeFrac > 0.1
}

// skinFraction estimates how much of the face region is skin-toned.
func skinFraction(img image.Image, region image.Rectangle) float64 {
	total := region.Dx() * region.Dy()
	if total == 0 {
		return 0
	}

	skin := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if isSkinTone(uint8(r>>8), uint8(g>>8), uint8(b>>8)) {
				skin++
			}
		}
	}
	return float64(skin) / float64(total)
}

// isSkinTone applies an HSV range that covers most skin colors: hue in
// the red-yellow band, moderate saturation, reasonable brightness.
func isSkinTone(r, g, b uint8) bool {
	maxC := maxu8(r, maxu8(g, b))
	minC := minu8(r, minu8(g, b))
	v := maxC
	if v < 70 {
		return false
	}

	delta := maxC - minC
	if delta == 0 {
		return false
	}
	s := int(delta) * 255 / int(maxC)
	if s < 20 {
		return false
	}

	var hue float64
	switch maxC {
	case r:
		hue = 60 * float64(int(g)-int(b)) / float64(delta)
	case g:
		hue = 120 + 60*float64(int(b)-int(r))/float64(delta)
	default:
		hue = 240 + 60*float64(int(r)-int(g))/float64(delta)
	}
	if hue < 0 {
		hue += 360
	}
	return hue <= 70 || hue >= 340
}

// encodeHeadshot crops the face plus a border, pads the crop square on a
// white background, downscales it and returns base64 PNG.
func encodeHeadshot(img image.Image, face image.Rectangle) (string, error) {
	bounds := img.Bounds()

	bw := int(float64(face.Dx()) * headshotBorder)
	bh := int(float64(face.Dy()) * headshotBorder)
	crop := image.Rect(face.Min.X-bw, face.Min.Y-bh, face.Max.X+bw, face.Max.Y+bh)
	crop = crop.Intersect(bounds)

	side := crop.Dx()
	if crop.Dy() > side {
		side = crop.Dy()
	}

	square := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(square, square.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	offset := image.Pt((side-crop.Dx())/2, (side-crop.Dy())/2)
	draw.Draw(square, crop.Sub(crop.Min).Add(offset), img, crop.Min, draw.Src)

	out := image.Image(square)
	if side > headshotMaxSize {
		scaled := image.NewRGBA(image.Rect(0, 0, headshotMaxSize, headshotMaxSize))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), square, square.Bounds(), xdraw.Over, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxu8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

func minu8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}
