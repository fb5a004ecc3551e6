package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/gardar/gradeflow/pkg/hocr"
)

// Tesseract is the local engine. Tesseract confidences on a few handwritten
// digits are meaningless, so every result carries the fixed Confidence.
type Tesseract struct {
	Whitelist  string
	Languages  []string
	Confidence float64

	clientFactory func() *gosseract.Client
}

// NewTesseract returns a Tesseract engine restricted to whitelist.
func NewTesseract(whitelist string, languages []string, confidence float64) *Tesseract {
	return &Tesseract{
		Whitelist:     whitelist,
		Languages:     languages,
		Confidence:    confidence,
		clientFactory: gosseract.NewClient,
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize reads the image as a single block of text. An unreadable image
// yields an empty Text, not an error.
func (t *Tesseract) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	c := t.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(t.Languages) > 0 {
		if err := c.SetLanguage(t.Languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if t.Whitelist != "" {
		if err := c.SetWhitelist(t.Whitelist); err != nil {
			return Result{}, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return Result{}, fmt.Errorf("set page segmentation: %w", err)
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	markup, err := c.HOCRText()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}
	text := ""
	if doc, err := hocr.ParseHOCR([]byte(markup)); err == nil {
		text = doc.Text()
	}
	return Result{
		Engine:     t.Name(),
		Text:       strings.TrimSpace(text),
		Confidence: t.Confidence,
	}, nil
}
