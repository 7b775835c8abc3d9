package media_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/stashctl/internal/media"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(8, 8), nil))
	return buf.Bytes()
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(8, 8)))
	return buf.Bytes()
}

func encodeGIF(t *testing.T) []byte {
	t.Helper()
	pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, pal, nil))
	return buf.Bytes()
}

func riffChunk(fourcc string, payload []byte) []byte {
	out := []byte(fourcc)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func webpContainer(chunks ...[]byte) []byte {
	var body []byte
	body = append(body, []byte("WEBP")...)
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func animatedWebP(frames int) []byte {
	chunks := [][]byte{
		riffChunk("VP8X", []byte{0x02, 0, 0, 0, 9, 0, 0, 9, 0, 0}),
		riffChunk("ANIM", make([]byte, 6)),
	}
	for i := 0; i < frames; i++ {
		chunks = append(chunks, riffChunk("ANMF", make([]byte, 17)))
	}
	return webpContainer(chunks...)
}

var signatureCases = []struct {
	name string
	data []byte
	want media.Format
}{
	{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0}, media.JPEG},
	{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, media.PNG},
	{"gif", []byte("GIF89a...."), media.GIF},
	{"webp", webpContainer(riffChunk("VP8 ", make([]byte, 10))), media.WebP},
	{"bmp", []byte("BM\x00\x00\x00\x00"), media.BMP},
	{"tiff le", []byte{0x49, 0x49, 0x2A, 0x00, 8, 0}, media.TIFF},
	{"tiff be", []byte{0x4D, 0x4D, 0x00, 0x2A, 0, 8}, media.TIFF},
	{"ico", []byte{0x00, 0x00, 0x01, 0x00, 1, 0}, media.ICO},
	{"avif", []byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00avifmif1miaf"), media.AVIF},
	{"heic", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic"), media.HEIC},
	{"mif1 with avif brand", []byte("\x00\x00\x00\x18ftypmif1\x00\x00\x00\x00avifmiaf"), media.AVIF},
	{"mif1 alone", []byte("\x00\x00\x00\x14ftypmif1\x00\x00\x00\x00mif1"), media.HEIC},
	{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), media.SVG},
	{"svg with prolog", []byte("\n<?xml version=\"1.0\"?>\n<SVG width=\"1\"/>"), media.SVG},
	{"svg doctype", []byte(`<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN">`), media.SVG},
}

func TestByMagic_Signatures(t *testing.T) {
	d := media.NewDetector(media.ByMagic)
	for _, c := range signatureCases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, d.Detect(c.data, ""))
		})
	}
}

// The default chain must agree with the signature table on bare prefixes.
func TestDetect_Signatures(t *testing.T) {
	for _, c := range signatureCases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, media.Detect(c.data, ""))
		})
	}
}

func TestDetect_DefaultsToJPEG(t *testing.T) {
	assert.Equal(t, media.JPEG, media.Detect(nil, ""))
	assert.Equal(t, media.JPEG, media.Detect([]byte("just some text"), ""))
	assert.Equal(t, media.JPEG, media.Detect([]byte("<html><body>no vector here</body></html>"), "page"))
}

func TestDetect_SVGSniffOnlyLooksAtHead(t *testing.T) {
	data := append([]byte("<html>"), bytes.Repeat([]byte(" "), 300)...)
	data = append(data, []byte("<svg></svg>")...)
	assert.Equal(t, media.JPEG, media.NewDetector(media.ByMagic).Detect(data, ""))
}

func TestDetect_ExtensionHintWins(t *testing.T) {
	assert.Equal(t, media.PNG, media.Detect(encodeJPEG(t), "photo.png"))
	assert.Equal(t, media.SVG, media.Detect(encodeJPEG(t), "https://example.com/logo.SVG?v=3#top"))
	assert.Equal(t, media.HEIC, media.Detect(nil, "/tmp/IMG_0001.heif"))
}

func TestDetect_UnknownExtensionFallsThrough(t *testing.T) {
	assert.Equal(t, media.PNG, media.Detect(encodePNG(t), "https://example.com/image.php?id=4"))
}

func TestDetect_Structural(t *testing.T) {
	d := media.NewDetector(media.ByStructure)
	assert.Equal(t, media.JPEG, d.Detect(encodeJPEG(t), ""))
	assert.Equal(t, media.PNG, d.Detect(encodePNG(t), ""))
	assert.Equal(t, media.GIF, d.Detect(encodeGIF(t), ""))
}

func TestDetect_MIME(t *testing.T) {
	d := media.NewDetector(media.ByMIME)
	assert.Equal(t, media.PNG, d.Detect(encodePNG(t), ""))
	assert.Equal(t, media.GIF, d.Detect(encodeGIF(t), ""))
}

func TestParseFormat(t *testing.T) {
	cases := map[string]media.Format{
		"jpeg": media.JPEG, ".JPG": media.JPEG, "heif": media.HEIC,
		"tif": media.TIFF, "ico": media.ICO, "svg+xml": media.SVG,
	}
	for in, want := range cases {
		got, ok := media.ParseFormat(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := media.ParseFormat("pdf")
	assert.False(t, ok)
}

func TestFormat_Ext(t *testing.T) {
	want := []string{"jpg", "png", "gif", "webp", "avif", "svg", "tiff", "heic", "bmp", "ico"}
	for i, f := range media.All {
		assert.Equal(t, want[i], f.Ext())
	}
}

func TestIsAnimated(t *testing.T) {
	assert.True(t, media.IsAnimated(encodeGIF(t), media.GIF), "single-frame gif still counts")
	assert.True(t, media.IsAnimated(animatedWebP(3), media.WebP))
	assert.False(t, media.IsAnimated(animatedWebP(1), media.WebP))
	assert.False(t, media.IsAnimated(webpContainer(riffChunk("VP8 ", make([]byte, 10))), media.WebP))
	assert.False(t, media.IsAnimated(encodePNG(t), media.PNG))
}

func TestWebPFrameCount(t *testing.T) {
	assert.Equal(t, 2, media.WebPFrameCount(animatedWebP(2)))
	assert.Equal(t, 1, media.WebPFrameCount([]byte("RIFF")))
	assert.Equal(t, 1, media.WebPFrameCount(nil))
}
