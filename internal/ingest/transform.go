package ingest

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/blackwell-systems/stashctl/internal/errs"
)

// Output geometry and quality for stored assets.
const (
	MaxWidth     = 1200
	MaxHeight    = 800
	ThumbWidth   = 400
	ThumbHeight  = 225
	FullQuality  = 85
	ThumbQuality = 80
)

func decodeRaster(data []byte, hint string) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errs.Encode("decode image", hint, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errs.Encode("decode image", hint, fmt.Errorf("empty image"))
	}
	return img, nil
}

// fitJPEG scales img down to fit MaxWidth×MaxHeight. Smaller images keep
// their size.
func fitJPEG(img image.Image) ([]byte, error) {
	return encodeJPEG(imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos), FullQuality)
}

// coverJPEG fills ThumbWidth×ThumbHeight, cropping from the top.
func coverJPEG(img image.Image) ([]byte, error) {
	return encodeJPEG(imaging.Fill(img, ThumbWidth, ThumbHeight, imaging.Top, imaging.Lanczos), ThumbQuality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, errs.Encode("encode jpeg", "", err)
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errs.Encode("encode png", "", err)
	}
	return buf.Bytes(), nil
}
