package ingest

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/gif"

	"github.com/disintegration/imaging"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/media"
)

// maxAnimationPixels bounds canvas area × frame count for re-encoding.
const maxAnimationPixels = 150_000_000

var errNoAnimatedEncoder = errors.New("no encoder for animated webp")

// resizeAnimation re-encodes every frame of an animated image at the given
// bound. cover selects Fill (cropped, anchored top) instead of Fit. Any
// failure is an EncodeError; callers fall back to the original bytes.
func resizeAnimation(data []byte, f media.Format, w, h int, cover bool) ([]byte, error) {
	switch f {
	case media.GIF:
		return resizeGIF(data, w, h, cover)
	case media.WebP:
		return nil, errs.Encode("resize animation", f.Ext(), errNoAnimatedEncoder)
	}
	return nil, errs.Encode("resize animation", f.Ext(), errors.New("format cannot animate"))
}

func resizeGIF(data []byte, w, h int, cover bool) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Encode("decode gif", "", err)
	}
	if len(g.Image) == 0 {
		return nil, errs.Encode("decode gif", "", errors.New("no frames"))
	}

	cw, ch := g.Config.Width, g.Config.Height
	if cw <= 0 || ch <= 0 {
		b := g.Image[0].Bounds()
		cw, ch = b.Max.X, b.Max.Y
	}
	if cw <= 0 || ch <= 0 || cw*ch*len(g.Image) > maxAnimationPixels {
		return nil, errs.Encode("resize gif", "", errors.New("animation too large"))
	}

	canvas := image.NewRGBA(image.Rect(0, 0, cw, ch))
	out := &gif.GIF{
		LoopCount:       g.LoopCount,
		BackgroundIndex: g.BackgroundIndex,
	}

	for i, frame := range g.Image {
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(canvas.Bounds())
			draw.Draw(previous, previous.Bounds(), canvas, image.Point{}, draw.Src)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		var scaled *image.NRGBA
		if cover {
			scaled = imaging.Fill(canvas, w, h, imaging.Top, imaging.Lanczos)
		} else {
			scaled = imaging.Fit(canvas, w, h, imaging.Lanczos)
		}
		p := image.NewPaletted(scaled.Bounds(), frame.Palette)
		draw.FloydSteinberg.Draw(p, p.Bounds(), scaled, image.Point{})

		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		out.Image = append(out.Image, p)
		out.Delay = append(out.Delay, delay)
		out.Disposal = append(out.Disposal, gif.DisposalNone)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, errs.Encode("encode gif", "", err)
	}
	return buf.Bytes(), nil
}
