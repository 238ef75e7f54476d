package operations

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testImageBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 50, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFitInsideDownscales(t *testing.T) {
	img, err := Decode(testImageBytes(t, 1200, 800))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	fitted := FitInside(img, 400)
	b := fitted.Bounds()
	if b.Dx() != 400 || b.Dy() != 267 {
		t.Fatalf("got %dx%d, want 400x267", b.Dx(), b.Dy())
	}
}

func TestFitInsideNeverUpscales(t *testing.T) {
	img, err := Decode(testImageBytes(t, 300, 200))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	fitted := FitInside(img, 400)
	b := fitted.Bounds()
	if b.Dx() != 300 || b.Dy() != 200 {
		t.Fatalf("source smaller than box must keep native size, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestCoverFillsExactBox(t *testing.T) {
	img, err := Decode(testImageBytes(t, 1200, 800))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	tests := []struct{ w, h int }{
		{400, 300},
		{100, 100},
		// Cover upscales when needed; the box is always filled exactly.
		{2000, 100},
	}
	for _, tt := range tests {
		covered := Cover(img, tt.w, tt.h)
		b := covered.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("Cover(%dx%d) produced %dx%d", tt.w, tt.h, b.Dx(), b.Dy())
		}
	}
}

func TestEncodeJPEGAndReadBackDimensions(t *testing.T) {
	img, err := Decode(testImageBytes(t, 640, 480))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	data, err := EncodeJPEG(img, 82)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	w, h, err := EncodedDimensions(data)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if w != 640 || h != 480 {
		t.Fatalf("got %dx%d, want 640x480", w, h)
	}
}
