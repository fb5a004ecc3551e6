// Package ocr reads text from small images. Engines share one contract, and a
// Chain tries the external service first and falls back to a local engine.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
)

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG ImageFormat = "image/png"
)

// DefaultConfidence is assumed when an engine reports no confidence.
const DefaultConfidence = 0.5

// Input is one image submitted for recognition.
type Input struct {
	Image  []byte
	Format ImageFormat
	// DPI is the effective resolution of the image; zero means unknown.
	DPI int
}

// Result is the outcome of one recognition. Confidence is in [0,1].
type Result struct {
	Engine     string
	Text       string
	Confidence float64
}

// Engine turns one image into text.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// PNGInput encodes img as a PNG input.
func PNGInput(img image.Image, dpi int) (Input, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Input{}, fmt.Errorf("encode png: %w", err)
	}
	return Input{Image: buf.Bytes(), Format: ImageFormatPNG, DPI: dpi}, nil
}
