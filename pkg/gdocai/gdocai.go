// Package gdocai is gradeflow's connection to Google Document AI, the
// external OCR service used to read handwritten grades.
//
// A Client sends one image per request to an OCR processor and converts the
// returned Document into the hocr model, carrying token confidences along.
//
// Usage requirements:
//
//   - Google Cloud project with the Document AI API enabled
//   - An OCR processor in that project
//   - Credentials via a service account file (GOOGLE_APPLICATION_CREDENTIALS)
package gdocai

import (
	"context"
	"fmt"

	"github.com/gardar/gradeflow/pkg/hocr"
)

// Recognize sends an image to Document AI and returns the recognized text in
// hOCR form. mimeType is e.g. "image/png".
func (c *Client) Recognize(ctx context.Context, image []byte, mimeType string) (*hocr.HOCR, error) {
	doc, err := c.Process(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	h, err := ToHOCR(doc)
	if err != nil {
		return nil, fmt.Errorf("convert document ai response: %w", err)
	}
	return h, nil
}
