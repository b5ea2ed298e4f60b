package config

import (
	"fmt"
	"sort"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

// Loader resolves the options file and per-run overrides into validated options
type Loader struct {
	OptionsPath string
	Format      string

	// Set overrides boolean options by their YAML key, e.g. "discourse_mode".
	Set map[string]bool
}

// Load reads the options file (if any), applies overrides and validates the result
func (l *Loader) Load() (*Options, error) {
	opts := DefaultOptions()

	if l.OptionsPath != "" {
		loaded, err := LoadOptions(l.OptionsPath)
		if err != nil {
			return nil, fmt.Errorf("load options: %w", err)
		}
		opts = *loaded
	}

	if l.Format != "" {
		opts.Format = l.Format
	}

	// Apply in key order so error messages are stable
	keys := make([]string, 0, len(l.Set))
	for k := range l.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := setBool(&opts, k, l.Set[k]); err != nil {
			return nil, err
		}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Format = opts.FormatTag()

	return &opts, nil
}

func setBool(opts *Options, key string, v bool) error {
	switch key {
	case "discourse_mode":
		opts.DiscourseMode = v
	case "confidence_scores":
		opts.ConfidenceScores = v
	case "ignore_surface_forms":
		opts.IgnoreSurfaceForms = v
	case "ignore_lemmas":
		opts.IgnoreLemmas = v
	case "ignore_cpos_tags":
		opts.IgnoreCposTags = v
	case "ignore_pos_tags":
		opts.IgnorePosTags = v
	case "ignore_morphology":
		opts.IgnoreMorphology = v
	default:
		return fmt.Errorf("%w: unknown option %q", internalerr.ErrInvalidConfig, key)
	}
	return nil
}
