package ingest

import (
	"bytes"
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/blackwell-systems/stashctl/internal/errs"
)

const maxRasterSide = 8192

// rasterizeSVG renders an SVG large enough to cover w×h, then crops it to
// exactly w×h anchored at the top and encodes PNG.
func rasterizeSVG(data []byte, w, h int) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, errs.Encode("parse svg", "", err)
	}

	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = float64(w), float64(h)
	}
	scale := math.Max(float64(w)/vw, float64(h)/vh)
	rw, rh := int(math.Ceil(vw*scale)), int(math.Ceil(vh*scale))
	if rw <= 0 || rh <= 0 || rw > maxRasterSide || rh > maxRasterSide {
		return nil, errs.Encode("rasterize svg", "", errors.New("unusable view box"))
	}

	icon.SetTarget(0, 0, float64(rw), float64(rh))
	rgba := image.NewRGBA(image.Rect(0, 0, rw, rh))
	scanner := rasterx.NewScannerGV(rw, rh, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(rw, rh, scanner), 1.0)

	return encodePNG(imaging.Fill(rgba, w, h, imaging.Top, imaging.Lanczos))
}
