package media

import (
	"bytes"
	"image"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Strategy inspects a hint path and/or content and returns a format when it
// can tell.
type Strategy func(data []byte, hint string) (Format, bool)

// Detector tries its strategies in order and falls back to JPEG.
type Detector struct {
	strategies []Strategy
}

// NewDetector builds a detector from an explicit strategy list. With no
// arguments it uses the default chain: extension hint, structural parse,
// magic bytes, content sniffing. Magic runs before sniffing so the ftyp
// brand rules decide between AVIF and HEIC.
func NewDetector(strategies ...Strategy) *Detector {
	if len(strategies) == 0 {
		strategies = []Strategy{ByExtension, ByStructure, ByMagic, ByMIME}
	}
	return &Detector{strategies: strategies}
}

// Detect never fails: when nothing matches the result is JPEG.
func (d *Detector) Detect(data []byte, hint string) Format {
	for _, s := range d.strategies {
		if f, ok := s(data, hint); ok {
			return f
		}
	}
	return JPEG
}

var defaultDetector = NewDetector()

// Detect classifies data with the default strategy chain.
func Detect(data []byte, hint string) Format {
	return defaultDetector.Detect(data, hint)
}

// ByExtension trusts the hint's file extension. Query strings and fragments
// are ignored so URLs work as hints.
func ByExtension(_ []byte, hint string) (Format, bool) {
	if hint == "" {
		return JPEG, false
	}
	if i := strings.IndexAny(hint, "?#"); i >= 0 {
		hint = hint[:i]
	}
	ext := path.Ext(strings.ReplaceAll(hint, `\`, "/"))
	if ext == "" {
		return JPEG, false
	}
	return ParseFormat(ext)
}

// ByStructure asks the registered image decoders to parse the header.
func ByStructure(data []byte, _ string) (Format, bool) {
	if len(data) == 0 {
		return JPEG, false
	}
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return JPEG, false
	}
	return ParseFormat(name)
}

// ByMIME sniffs the content type and accepts only image types.
func ByMIME(data []byte, _ string) (Format, bool) {
	if len(data) == 0 {
		return JPEG, false
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		mt, _, _ := strings.Cut(m.String(), ";")
		if f, ok := formatForMIME(strings.TrimSpace(mt)); ok {
			return f, true
		}
	}
	return JPEG, false
}

func formatForMIME(mt string) (Format, bool) {
	switch mt {
	case "image/jpeg":
		return JPEG, true
	case "image/png":
		return PNG, true
	case "image/gif":
		return GIF, true
	case "image/webp":
		return WebP, true
	case "image/avif":
		return AVIF, true
	case "image/svg+xml":
		return SVG, true
	case "image/tiff":
		return TIFF, true
	case "image/heic", "image/heif", "image/heic-sequence", "image/heif-sequence":
		return HEIC, true
	case "image/bmp", "image/x-bmp":
		return BMP, true
	case "image/x-icon", "image/vnd.microsoft.icon":
		return ICO, true
	}
	return JPEG, false
}

type signature struct {
	offset int
	magic  []byte
	format Format
}

var signatures = []signature{
	{0, []byte{0xFF, 0xD8, 0xFF}, JPEG},
	{0, []byte{0x89, 0x50, 0x4E, 0x47}, PNG},
	{0, []byte("GIF8"), GIF},
	{0, []byte{0x49, 0x49, 0x2A, 0x00}, TIFF},
	{0, []byte{0x4D, 0x4D, 0x00, 0x2A}, TIFF},
	{0, []byte{0x00, 0x00, 0x01, 0x00}, ICO},
	{0, []byte("BM"), BMP},
}

// ByMagic matches the fixed signature table, the RIFF/WEBP container, the
// ISO-BMFF ftyp brands used by AVIF and HEIC, and an SVG text sniff.
func ByMagic(data []byte, _ string) (Format, bool) {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return WebP, true
	}
	if f, ok := ftypBrand(data); ok {
		return f, true
	}
	for _, s := range signatures {
		end := s.offset + len(s.magic)
		if len(data) >= end && bytes.Equal(data[s.offset:end], s.magic) {
			return s.format, true
		}
	}
	if looksLikeSVG(data) {
		return SVG, true
	}
	return JPEG, false
}

var (
	avifBrands = map[string]bool{"avif": true, "avis": true}
	heicBrands = map[string]bool{
		"heic": true, "heix": true, "hevc": true, "hevx": true,
		"heim": true, "heis": true, "mif1": true, "msf1": true,
	}
)

// ftypBrand reads the major brand at offset 8 and the compatible brands that
// follow it inside the ftyp box. An AVIF compatible brand wins over the
// generic mif1/msf1 brands.
func ftypBrand(data []byte) (Format, bool) {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return JPEG, false
	}
	major := string(data[8:12])
	if avifBrands[major] {
		return AVIF, true
	}

	boxSize := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	if boxSize > len(data) || boxSize < 16 {
		boxSize = len(data)
	}
	// compatible brands start after major brand and minor version
	for i := 16; i+4 <= boxSize; i += 4 {
		if avifBrands[string(data[i:i+4])] {
			return AVIF, true
		}
	}
	if heicBrands[major] {
		return HEIC, true
	}
	for i := 16; i+4 <= boxSize; i += 4 {
		if heicBrands[string(data[i:i+4])] {
			return HEIC, true
		}
	}
	return JPEG, false
}

const svgSniffLen = 256

func looksLikeSVG(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 || data[0] != '<' {
		return false
	}
	if len(data) > svgSniffLen {
		data = data[:svgSniffLen]
	}
	head := bytes.ToLower(data)
	return bytes.Contains(head, []byte("<svg")) || bytes.Contains(head, []byte("<!doctype svg"))
}
