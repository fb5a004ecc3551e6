// Package config holds every tunable of a gradeflow run in one structure.
//
// Thresholds, proportional search regions and OCR settings are loaded from a
// YAML file on top of DefaultConfig and handed to each component explicitly,
// so packages never read process-wide state.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration of a run.
type Config struct {
	DocAI      DocAIConfig      `yaml:"docai"`
	OCR        OCRConfig        `yaml:"ocr"`
	Page       PageConfig       `yaml:"page"`
	Watermark  WatermarkConfig  `yaml:"watermark"`
	Region     Region           `yaml:"grade_region"`
	Ink        InkConfig        `yaml:"ink"`
	Matching   MatchingConfig   `yaml:"matching"`
	Gradebook  GradebookConfig  `yaml:"gradebook"`
	Quarantine QuarantineConfig `yaml:"quarantine"`
}

// DocAIConfig locates the Document AI processor used as the external OCR
// service. An empty ProjectID disables the service.
type DocAIConfig struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Enabled reports whether enough settings are present to call the service.
func (c DocAIConfig) Enabled() bool {
	return c.ProjectID != "" && c.Location != "" && c.ProcessorID != ""
}

// OCRConfig controls rasterization and recognition of grade regions.
type OCRConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	DPI             float64       `yaml:"dpi"`
	Whitelist       string        `yaml:"whitelist"`
	LocalConfidence float64       `yaml:"local_confidence"`
	Languages       []string      `yaml:"languages"`
	UpscaleFactor   int           `yaml:"upscale_factor"`
}

// PageConfig is the target page geometry in PDF points.
type PageConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// WatermarkConfig sets the font and position of the per-page provenance text.
type WatermarkConfig struct {
	Font     string  `yaml:"font"`
	Size     float64 `yaml:"size"`
	MarginX  float64 `yaml:"margin_x"`
	MarginY  float64 `yaml:"margin_y"`
	MaxChars int     `yaml:"max_chars"`
}

// Region is a rectangle expressed as fractions of the page width and height.
type Region struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// InkConfig drives colored-ink isolation inside the grade region.
type InkConfig struct {
	RedMargin     int `yaml:"red_margin"`
	MaxLuminance  int `yaml:"max_luminance"`
	MinRedPixels  int `yaml:"min_red_pixels"`
	GrayThreshold int `yaml:"gray_threshold"`
}

// MatchingConfig groups name-matching thresholds.
type MatchingConfig struct {
	MinMatchRate         float64 `yaml:"min_match_rate"`
	MaxUnmatched         int     `yaml:"max_unmatched"`
	NameSimilarity       float64 `yaml:"name_similarity"`
	FolderSimilarity     float64 `yaml:"folder_similarity"`
	FolderRelaxed        float64 `yaml:"folder_similarity_relaxed"`
	DuplicateSimilarity  float64 `yaml:"duplicate_similarity"`
	VerifyConfidence     float64 `yaml:"verify_confidence"`
	FirstLastSimilarity  float64 `yaml:"first_last_similarity"`
	MinSharedWords       int     `yaml:"min_shared_words"`
	CandidateMaxChars    int     `yaml:"candidate_max_chars"`
	CandidateMinTokens   int     `yaml:"candidate_min_tokens"`
	CandidateMaxTokens   int     `yaml:"candidate_max_tokens"`
	CandidateShortLength int     `yaml:"candidate_short_length"`
}

// GradebookConfig controls how grades land in the roster file.
type GradebookConfig struct {
	InsertColumn   bool          `yaml:"insert_column"`
	CompletionOnly bool          `yaml:"completion_only"`
	DefaultGrade   string        `yaml:"default_grade"`
	MaxPoints      int           `yaml:"max_points"`
	LockRetryDelay time.Duration `yaml:"lock_retry_delay"`
	EditorProcess  string        `yaml:"editor_process"`
}

// QuarantineConfig names the folder receiving unreadable submissions.
type QuarantineConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a config with the values the pipeline was tuned with.
func DefaultConfig() Config {
	return Config{
		DocAI: DocAIConfig{
			Location: "us",
		},
		OCR: OCRConfig{
			Timeout:         10 * time.Second,
			DPI:             200,
			Whitelist:       "0123456789/",
			LocalConfidence: 0.5,
			Languages:       []string{"eng"},
			UpscaleFactor:   2,
		},
		Page: PageConfig{
			Width:  612,
			Height: 792,
		},
		Watermark: WatermarkConfig{
			Font:     "Helvetica",
			Size:     9,
			MarginX:  12,
			MarginY:  14,
			MaxChars: 60,
		},
		Region: Region{X: 0.55, Y: 0.0, Width: 0.45, Height: 0.18},
		Ink: InkConfig{
			RedMargin:     50,
			MaxLuminance:  200,
			MinRedPixels:  40,
			GrayThreshold: 128,
		},
		Matching: MatchingConfig{
			MinMatchRate:         0.30,
			MaxUnmatched:         3,
			NameSimilarity:       0.5,
			FolderSimilarity:     0.8,
			FolderRelaxed:        0.6,
			DuplicateSimilarity:  0.9,
			VerifyConfidence:     0.7,
			FirstLastSimilarity:  0.95,
			MinSharedWords:       2,
			CandidateMaxChars:    50,
			CandidateMinTokens:   2,
			CandidateMaxTokens:   4,
			CandidateShortLength: 2,
		},
		Gradebook: GradebookConfig{
			DefaultGrade:   "100",
			MaxPoints:      100,
			LockRetryDelay: 2 * time.Second,
		},
		Quarantine: QuarantineConfig{
			Dir: "_unreadable",
		},
	}
}

// Load reads a YAML file over the defaults. Values from a .env file next to
// the working directory and from the environment override the Document AI
// settings, so credentials can stay out of the YAML file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GRADEFLOW_DOCAI_PROJECT"); v != "" {
		cfg.DocAI.ProjectID = v
	}
	if v := os.Getenv("GRADEFLOW_DOCAI_LOCATION"); v != "" {
		cfg.DocAI.Location = v
	}
	if v := os.Getenv("GRADEFLOW_DOCAI_PROCESSOR"); v != "" {
		cfg.DocAI.ProcessorID = v
	}
	if cfg.DocAI.CredentialsFile == "" {
		cfg.DocAI.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
}

// Validate rejects configurations that would make components misbehave.
func (c Config) Validate() error {
	if c.Page.Width <= 0 || c.Page.Height <= 0 {
		return fmt.Errorf("page size must be positive, got %.1fx%.1f", c.Page.Width, c.Page.Height)
	}
	r := c.Region
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 || r.X+r.Width > 1 || r.Y+r.Height > 1 {
		return fmt.Errorf("grade region must lie within the unit square, got %+v", r)
	}
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("ocr dpi must be positive, got %.1f", c.OCR.DPI)
	}
	if c.OCR.LocalConfidence < 0 || c.OCR.LocalConfidence > 1 {
		return fmt.Errorf("local confidence must be within [0,1], got %.2f", c.OCR.LocalConfidence)
	}
	if c.Matching.VerifyConfidence < 0 || c.Matching.VerifyConfidence > 1 {
		return fmt.Errorf("verify confidence must be within [0,1], got %.2f", c.Matching.VerifyConfidence)
	}
	if c.Matching.FirstLastSimilarity < 0 || c.Matching.FirstLastSimilarity > 1 {
		return fmt.Errorf("first/last similarity must be within [0,1], got %.2f", c.Matching.FirstLastSimilarity)
	}
	if c.Matching.MinSharedWords < 1 {
		return fmt.Errorf("min shared words must be at least 1, got %d", c.Matching.MinSharedWords)
	}
	if c.Watermark.Size <= 0 {
		return fmt.Errorf("watermark font size must be positive")
	}
	return nil
}
