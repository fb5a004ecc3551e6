package pdfdoc

import "github.com/gardar/gradeflow/pkg/config"

// Options controls page geometry and watermark rendering.
type Options struct {
	PageWidth  float64 // target page size in points
	PageHeight float64
	Font       FontConfig
	MarginX    float64 // watermark baseline offset from the top-left corner
	MarginY    float64
	MaxChars   int // longer watermark names are truncated
}

// FontConfig is the watermark font.
type FontConfig struct {
	Name  string // core font name, e.g. "Helvetica"
	Style string // "", "B", "I", "BI"
	Size  float64
}

// DefaultOptions returns options for US Letter pages with a 9pt Helvetica
// watermark.
func DefaultOptions() Options {
	return OptionsFrom(config.DefaultConfig())
}

// OptionsFrom builds options from the run configuration.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		PageWidth:  cfg.Page.Width,
		PageHeight: cfg.Page.Height,
		Font: FontConfig{
			Name: cfg.Watermark.Font,
			Size: cfg.Watermark.Size,
		},
		MarginX:  cfg.Watermark.MarginX,
		MarginY:  cfg.Watermark.MarginY,
		MaxChars: cfg.Watermark.MaxChars,
	}
}
