// Package enhance normalizes dish photos into a uniform square format with
// consistent tone, so a menu's images look like one coherent set. An optional
// remote AI enhancer runs first; the deterministic pipeline always runs.
package enhance

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

const (
	// outputSize is the edge length of every enhanced image.
	outputSize = 1200
	// jpegQuality balances file size against visible artifacts.
	jpegQuality = 82

	// targetLuma is the mean brightness the pipeline normalizes toward,
	// on the 0-255 scale.
	targetLuma = 128.0
	// brightness scaling is clamped so dark moody shots and blown-out
	// phone photos are nudged, not destroyed.
	minBrightnessScale = 0.7
	maxBrightnessScale = 1.4

	contrastBoost   = 8
	saturationBoost = 5
	sharpenSigma    = 1.5

	// vignetteStrength darkens corners by at most this fraction.
	vignetteStrength = 0.18
)

// RemoteEnhancer is an optional AI touch-up step that runs before the
// deterministic pipeline.
type RemoteEnhancer interface {
	Enhance(ctx context.Context, image []byte) ([]byte, error)
}

// Enhancer turns raw downloaded dish photos into uniform output images.
type Enhancer struct {
	remote RemoteEnhancer
	logger zerolog.Logger
}

// New builds an Enhancer. remote may be nil.
func New(remote RemoteEnhancer, logger zerolog.Logger) *Enhancer {
	return &Enhancer{remote: remote, logger: logger}
}

// Enhance runs the optional remote pass and then the deterministic pipeline.
// Remote failures are logged and ignored; only an undecodable input fails.
func (e *Enhancer) Enhance(ctx context.Context, data []byte) ([]byte, error) {
	if e.remote != nil {
		out, err := e.remote.Enhance(ctx, data)
		switch {
		case err != nil:
			e.logger.Warn().Err(err).Msg("enhance: remote enhancer failed, using original")
		case len(out) > 0:
			data = out
		}
	}
	return Process(data)
}

// Process is the deterministic pipeline: square center crop, fixed-size
// resize, brightness normalization, gentle contrast/saturation/sharpen, and
// a subtle vignette, encoded as JPEG.
func Process(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("enhance: decode: %w", err)
	}

	bounds := img.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	if side < 1 {
		return nil, fmt.Errorf("enhance: empty image")
	}

	out := imaging.CropCenter(img, side, side)
	out = imaging.Resize(out, outputSize, outputSize, imaging.Lanczos)

	scale := brightnessScale(meanLuma(out))
	if scale != 1.0 {
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: clampByte(float64(c.R) * scale),
				G: clampByte(float64(c.G) * scale),
				B: clampByte(float64(c.B) * scale),
				A: c.A,
			}
		})
	}

	out = imaging.AdjustContrast(out, contrastBoost)
	out = imaging.AdjustSaturation(out, saturationBoost)
	out = imaging.Sharpen(out, sharpenSigma)
	applyVignette(out)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("enhance: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// brightnessScale maps a mean luma to the multiplier that would bring it to
// the target, clamped to a safe range.
func brightnessScale(mean float64) float64 {
	if mean <= 0 {
		return 1.0
	}
	scale := targetLuma / mean
	if scale < minBrightnessScale {
		return minBrightnessScale
	}
	if scale > maxBrightnessScale {
		return maxBrightnessScale
	}
	return scale
}

// meanLuma samples the image on a grid and returns average luminance, 0-255.
func meanLuma(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	step := 4
	var sum, n float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			c := img.NRGBAAt(x, y)
			sum += 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			n++
		}
	}
	if n == 0 {
		return targetLuma
	}
	return sum / n
}

// applyVignette darkens pixels toward the corners, quadratically with
// distance from center, in place.
func applyVignette(img *image.NRGBA) {
	bounds := img.Bounds()
	cx := float64(bounds.Min.X+bounds.Max.X) / 2
	cy := float64(bounds.Min.Y+bounds.Max.Y) / 2
	maxDist := math.Hypot(float64(bounds.Max.X)-cx, float64(bounds.Max.Y)-cy)
	if maxDist == 0 {
		return
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
			factor := 1 - vignetteStrength*d*d
			i := img.PixOffset(x, y)
			img.Pix[i] = clampByte(float64(img.Pix[i]) * factor)
			img.Pix[i+1] = clampByte(float64(img.Pix[i+1]) * factor)
			img.Pix[i+2] = clampByte(float64(img.Pix[i+2]) * factor)
		}
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
