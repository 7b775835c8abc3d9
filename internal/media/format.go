// Package media classifies image bytes into a closed set of formats.
package media

import (
	"fmt"
	"strings"
)

// Format is one of the image formats the catalog knows how to store.
type Format int

const (
	JPEG Format = iota
	PNG
	GIF
	WebP
	AVIF
	SVG
	TIFF
	HEIC
	BMP
	ICO
)

// All lists every format in declaration order.
var All = []Format{JPEG, PNG, GIF, WebP, AVIF, SVG, TIFF, HEIC, BMP, ICO}

// Ext is the canonical file extension, without a dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return "jpg"
	case PNG:
		return "png"
	case GIF:
		return "gif"
	case WebP:
		return "webp"
	case AVIF:
		return "avif"
	case SVG:
		return "svg"
	case TIFF:
		return "tiff"
	case HEIC:
		return "heic"
	case BMP:
		return "bmp"
	case ICO:
		return "ico"
	}
	panic(fmt.Sprintf("media: unknown format %d", int(f)))
}

func (f Format) String() string { return f.Ext() }

// MIME returns the media type served for the format.
func (f Format) MIME() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case GIF:
		return "image/gif"
	case WebP:
		return "image/webp"
	case AVIF:
		return "image/avif"
	case SVG:
		return "image/svg+xml"
	case TIFF:
		return "image/tiff"
	case HEIC:
		return "image/heic"
	case BMP:
		return "image/bmp"
	case ICO:
		return "image/x-icon"
	}
	panic(fmt.Sprintf("media: unknown format %d", int(f)))
}

// IsVector reports whether the format is stored verbatim rather than
// decoded to pixels.
func (f Format) IsVector() bool { return f == SVG }

// CanAnimate reports whether the format may carry more than one frame.
func (f Format) CanAnimate() bool { return f == GIF || f == WebP }

// ParseFormat maps a name or extension (with or without a leading dot) to a
// Format. Decoder names are normalized: jpeg→jpg, heif→heic, tif→tiff.
func ParseFormat(name string) (Format, bool) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "jpg", "jpeg":
		return JPEG, true
	case "png":
		return PNG, true
	case "gif":
		return GIF, true
	case "webp":
		return WebP, true
	case "avif":
		return AVIF, true
	case "svg", "svg+xml":
		return SVG, true
	case "tif", "tiff":
		return TIFF, true
	case "heic", "heif":
		return HEIC, true
	case "bmp":
		return BMP, true
	case "ico":
		return ICO, true
	}
	return JPEG, false
}
