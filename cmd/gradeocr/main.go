// gradeocr reads the handwritten grade of one page, for tuning the grade
// region and ink settings.
//
// It renders the page, crops the configured grade region, isolates the ink
// and runs the same OCR chain gradeflow uses.
//
// Usage:
//
//	gradeocr -pdf combined.pdf -page 3 [options]
//
// Flags:
//
//	-config string  Path to a YAML configuration file
//	-pdf string     Input PDF (required)
//	-page int       1-based page number (default 1)
//	-crop string    Path to save the preprocessed grade region as PNG
//	-raw string     Path to save the raw Document AI response as JSON
//	-local          Skip Document AI and use Tesseract only
//	-debug          Enable debug logging
//
// Example:
//
//	gradeocr -pdf combined.pdf -page 3 -crop grade.png -raw response.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/gdocai"
	"github.com/gardar/gradeflow/pkg/grade"
	"github.com/gardar/gradeflow/pkg/logging"
	"github.com/gardar/gradeflow/pkg/ocr"
	"github.com/gardar/gradeflow/pkg/pdfdoc"
)

func main() {
	configPath := flag.String("config", "", "Path to the config YAML file")
	pdfPath := flag.String("pdf", "", "Path to the input PDF file (required)")
	page := flag.Int("page", 1, "Page number to read (1-based index)")
	cropPath := flag.String("crop", "", "Path to save the preprocessed grade region")
	rawPath := flag.String("raw", "", "Path to save the raw Document AI response as JSON")
	local := flag.Bool("local", false, "Use the local engine only")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *pdfPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -pdf flag is required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(os.Stderr, *debug)

	pdfBytes, err := os.ReadFile(*pdfPath)
	if err != nil {
		log.Fatalf("Failed to read PDF file: %v", err)
	}
	img, err := pdfdoc.Rasterize(pdfBytes, *page, cfg.OCR.DPI)
	if err != nil {
		log.Fatalf("Failed to render page %d: %v", *page, err)
	}
	ink, red := grade.IsolateInk(grade.Crop(img, cfg.Region), cfg.Ink)
	scaled := grade.Upscale(ink, cfg.OCR.UpscaleFactor)
	dpi := int(cfg.OCR.DPI)
	if cfg.OCR.UpscaleFactor > 1 {
		dpi *= cfg.OCR.UpscaleFactor
	}
	in, err := ocr.PNGInput(scaled, dpi)
	if err != nil {
		log.Fatalf("Failed to encode grade region: %v", err)
	}
	fmt.Printf("Grade region %dx%d px, red ink: %v\n", scaled.Bounds().Dx(), scaled.Bounds().Dy(), red)

	if *cropPath != "" {
		if err := os.WriteFile(*cropPath, in.Image, 0644); err != nil {
			log.Fatalf("Failed to write grade region: %v", err)
		}
		fmt.Println("Grade region saved to:", *cropPath)
	}

	ctx := context.Background()
	chain := &ocr.Chain{
		Fallback: ocr.NewTesseract(cfg.OCR.Whitelist, cfg.OCR.Languages, cfg.OCR.LocalConfidence),
		Timeout:  cfg.OCR.Timeout,
		Log:      logger,
	}
	if !*local && cfg.DocAI.Enabled() {
		cli, err := gdocai.NewClient(ctx, cfg.DocAI)
		if err != nil {
			log.Fatalf("Failed to connect to Document AI: %v", err)
		}
		defer cli.Close()
		chain.Primary = ocr.NewService("docai", cli)

		if *rawPath != "" {
			doc, err := cli.Process(ctx, in.Image, string(in.Format))
			if err != nil {
				log.Fatalf("Error processing grade region: %v", err)
			}
			apiJSON, err := gdocai.ToJSON(doc)
			if err != nil {
				log.Fatalf("Failed to convert API response to JSON: %v", err)
			}
			if err := os.WriteFile(*rawPath, []byte(apiJSON), 0644); err != nil {
				log.Fatalf("Failed to write API response JSON: %v", err)
			}
			fmt.Println("API response JSON saved to:", *rawPath)
		}
	} else if *rawPath != "" {
		fmt.Println("Warning: -raw needs Document AI to be configured")
	}

	res := chain.Read(ctx, in)
	fmt.Printf("Engine:     %s\n", res.Engine)
	fmt.Printf("Raw text:   %q\n", res.Text)
	fmt.Printf("Confidence: %.2f\n", res.Confidence)
	fmt.Printf("Grade:      %s\n", grade.ExtractGradeFromText(res.Text))
}
