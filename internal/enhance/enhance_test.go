package enhance

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessProducesSquareJPEG(t *testing.T) {
	src := imaging.New(400, 200, color.NRGBA{R: 120, G: 110, B: 90, A: 255})
	out, err := Process(encodePNG(t, src))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if decoded.Bounds().Dx() != outputSize || decoded.Bounds().Dy() != outputSize {
		t.Errorf("size = %dx%d, want %dx%d",
			decoded.Bounds().Dx(), decoded.Bounds().Dy(), outputSize, outputSize)
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	if _, err := Process([]byte("not an image")); err == nil {
		t.Fatal("Process accepted garbage input")
	}
}

func TestBrightnessScale(t *testing.T) {
	tests := []struct {
		mean float64
		want float64
	}{
		{128, 1.0},
		{64, 1.4},  // would be 2.0, clamped
		{250, 0.7}, // would be 0.512, clamped
		{160, 0.8},
		{0, 1.0},
	}
	for _, tt := range tests {
		if got := brightnessScale(tt.mean); got != tt.want {
			t.Errorf("brightnessScale(%v) = %v, want %v", tt.mean, got, tt.want)
		}
	}
}

func TestVignetteDarkensCorners(t *testing.T) {
	img := imaging.New(100, 100, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	applyVignette(img)

	center := img.NRGBAAt(50, 50)
	corner := img.NRGBAAt(0, 0)
	if corner.R >= center.R {
		t.Errorf("corner %v not darker than center %v", corner, center)
	}
}

type failingRemote struct{}

func (failingRemote) Enhance(context.Context, []byte) ([]byte, error) {
	return nil, fmt.Errorf("model unavailable")
}

func TestEnhanceSurvivesRemoteFailure(t *testing.T) {
	src := imaging.New(300, 300, color.NRGBA{R: 90, G: 120, B: 60, A: 255})
	e := New(failingRemote{}, zerolog.New(io.Discard))

	out, err := e.Enhance(context.Background(), encodePNG(t, src))
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
}
