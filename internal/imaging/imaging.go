package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
)

// Defaults for photos attached to new items.
const (
	MaxWidth    = 800
	MaxHeight   = 800
	JPEGQuality = 70
)

// MaxInputSize limits how much raw image data is read.
const MaxInputSize = 20 << 20

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a compressed JPEG.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// DataURL returns the photo as a base64 data URL, the form the remote API
// accepts in photoBase64.
func (p *Photo) DataURL() string {
	return "data:" + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Compress reads image data, validates the format by sniffing bytes,
// scales it down to fit within maxW x maxH (never up) and re-encodes it as
// JPEG at the given quality.
func Compress(r io.Reader, maxW, maxH, quality int) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("image larger than %d bytes", MaxInputSize)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img, maxW, maxH)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// CompressDefault compresses with the default item photo settings.
func CompressDefault(r io.Reader) (*Photo, error) {
	return Compress(r, MaxWidth, MaxHeight, JPEGQuality)
}

// DecodeDataURL extracts the bytes and MIME type from a base64 data URL.
func DecodeDataURL(s string) ([]byte, string, error) {
	rest, found := strings.CutPrefix(s, "data:")
	if !found {
		return nil, "", fmt.Errorf("not a data URL")
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return nil, "", fmt.Errorf("malformed data URL")
	}
	mime, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return nil, "", fmt.Errorf("data URL is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data URL: %w", err)
	}
	return data, mime, nil
}

// fit resizes the image so it fits within maxW x maxH, preserving the aspect
// ratio: the longer side is pinned to its limit. Uses Catmull-Rom
// interpolation. Returns the original image if already within bounds.
func fit(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxW && h <= maxH {
		return img
	}

	newW, newH := w, h
	if w > h {
		newH = int(float64(h)*float64(maxW)/float64(w) + 0.5)
		newW = maxW
	} else {
		newW = int(float64(w)*float64(maxH)/float64(h) + 0.5)
		newH = maxH
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	// Register decoders (jpeg is registered by default, but be explicit).
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
