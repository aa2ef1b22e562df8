// Package enhance holds the transformation engine that turns a decoded
// low-light image into an enhanced one. The engine is a black box to the
// request pipeline: it is constructed once at startup and invoked only
// from the offload worker pool.
package enhance

import (
	"fmt"
	"image"
	"math"
)

// Engine produces an enhanced image from a decoded input image.
type Engine interface {
	Run(img image.Image) (image.Image, error)
}

// CurveEngine brightens shadows with a per-channel gamma lift followed by
// a mild contrast stretch. Deliberately CPU-bound and allocation-heavy on
// large inputs, which is exactly why it runs on the pool.
type CurveEngine struct {
	gamma    float64
	stretch  float64
	curve    [256]uint8
	prepared bool
}

// NewCurveEngine builds the engine and precomputes its tone curve.
// gamma < 1 lifts shadows; stretch in [0,1) controls how hard the output
// range is expanded around the midpoint.
func NewCurveEngine(gamma, stretch float64) (*CurveEngine, error) {
	if gamma <= 0 {
		return nil, fmt.Errorf("gamma must be positive, got %v", gamma)
	}
	if stretch < 0 || stretch >= 1 {
		return nil, fmt.Errorf("stretch must be in [0,1), got %v", stretch)
	}

	e := &CurveEngine{gamma: gamma, stretch: stretch}

	for i := range 256 {
		v := math.Pow(float64(i)/255.0, gamma)
		v = (v-0.5)*(1/(1-stretch)) + 0.5
		e.curve[i] = uint8(math.Round(clamp01(v) * 255.0))
	}
	e.prepared = true

	return e, nil
}

// DefaultEngine returns the engine with the stock low-light curve.
func DefaultEngine() *CurveEngine {
	e, err := NewCurveEngine(0.6, 0.1)
	if err != nil {
		// Stock parameters are static and always valid.
		panic(err)
	}
	return e
}

// Run applies the tone curve to every pixel, producing an RGBA image of
// the same dimensions. Alpha is ignored on input, matching the original
// pipeline, and set opaque on output.
func (e *CurveEngine) Run(img image.Image) (image.Image, error) {
	if !e.prepared {
		return nil, fmt.Errorf("engine not initialized")
	}
	if img == nil {
		return nil, fmt.Errorf("nil input image")
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("empty input image")
	}

	out := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()

			i := out.PixOffset(x, y)
			out.Pix[i+0] = e.curve[r>>8]
			out.Pix[i+1] = e.curve[g>>8]
			out.Pix[i+2] = e.curve[b>>8]
			out.Pix[i+3] = 0xff
		}
	}

	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
