package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gradeflow.yml")
	data := []byte(`
docai:
  project_id: demo
  processor_id: abc123
ocr:
  timeout: 3s
grade_region:
  x: 0.5
  y: 0.1
  width: 0.5
  height: 0.2
gradebook:
  insert_column: true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DocAI.ProjectID != "demo" || cfg.DocAI.ProcessorID != "abc123" {
		t.Fatalf("unexpected docai config: %+v", cfg.DocAI)
	}
	if cfg.DocAI.Location != "us" {
		t.Fatalf("default location lost: %q", cfg.DocAI.Location)
	}
	if cfg.OCR.Timeout != 3*time.Second {
		t.Fatalf("timeout = %v, want 3s", cfg.OCR.Timeout)
	}
	if cfg.OCR.LocalConfidence != 0.5 {
		t.Fatalf("local confidence = %v, want default 0.5", cfg.OCR.LocalConfidence)
	}
	if !cfg.Gradebook.InsertColumn {
		t.Fatalf("insert_column not applied")
	}
	if !cfg.DocAI.Enabled() {
		t.Fatalf("docai should be enabled")
	}
}

func TestValidateRejectsRegionOutsidePage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Region = Region{X: 0.8, Y: 0, Width: 0.4, Height: 0.1}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for region exceeding the page")
	}
}

func TestValidateRejectsMatchingRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Matching.MinSharedWords = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for min_shared_words 0")
	}
	cfg = DefaultConfig()
	cfg.Matching.FirstLastSimilarity = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for first_last_similarity 1.5")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if DefaultConfig().DocAI.Enabled() {
		t.Fatalf("docai must be disabled without a project")
	}
}
