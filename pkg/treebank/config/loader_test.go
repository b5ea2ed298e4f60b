package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	opts, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}

	if opts.Format != FormatCoNLL {
		t.Errorf("Expected format %s, got %q", FormatCoNLL, opts.Format)
	}
}

func TestLoaderNonExistentOptions(t *testing.T) {
	loader := Loader{OptionsPath: "/nonexistent/options.yaml"}

	_, err := loader.Load()
	if err == nil {
		t.Error("Should error on nonexistent options file")
	}
}

func TestLoaderOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	os.WriteFile(path, []byte("ignore_lemmas: true\nignore_morphology: true\n"), 0644)

	loader := Loader{
		OptionsPath: path,
		Format:      "conll",
		Set: map[string]bool{
			"ignore_lemmas":     false,
			"confidence_scores": true,
		},
	}

	opts, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if opts.IgnoreLemmas {
		t.Error("Override should clear ignore_lemmas")
	}
	if !opts.IgnoreMorphology {
		t.Error("File value for ignore_morphology should survive")
	}
	if !opts.ConfidenceScores {
		t.Error("Override should set confidence_scores")
	}
	if opts.Format != FormatCoNLL {
		t.Errorf("Format should be normalized to %s, got %q", FormatCoNLL, opts.Format)
	}
}

func TestLoaderUnknownOverride(t *testing.T) {
	loader := Loader{Set: map[string]bool{"ignore_everything": true}}

	_, err := loader.Load()
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoaderFormatOverrideValidated(t *testing.T) {
	loader := Loader{
		Format: "mst",
		Set:    map[string]bool{"discourse_mode": true},
	}

	_, err := loader.Load()
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
