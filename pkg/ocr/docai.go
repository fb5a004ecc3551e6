package ocr

import (
	"context"

	"github.com/gardar/gradeflow/pkg/hocr"
)

// HOCRRecognizer is satisfied by *gdocai.Client.
type HOCRRecognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (*hocr.HOCR, error)
}

// Service adapts an external OCR service returning hOCR to an Engine. The
// result confidence is the mean token confidence, or DefaultConfidence when
// the service reports none.
type Service struct {
	name string
	rec  HOCRRecognizer
}

// NewService wraps rec under the given engine name.
func NewService(name string, rec HOCRRecognizer) *Service {
	return &Service{name: name, rec: rec}
}

func (s *Service) Name() string { return s.name }

func (s *Service) Recognize(ctx context.Context, in Input) (Result, error) {
	format := in.Format
	if format == "" {
		format = ImageFormatPNG
	}
	doc, err := s.rec.Recognize(ctx, in.Image, string(format))
	if err != nil {
		return Result{}, err
	}
	conf, ok := doc.MeanConfidence()
	if !ok {
		conf = DefaultConfidence
	}
	return Result{Engine: s.name, Text: doc.Text(), Confidence: conf}, nil
}
