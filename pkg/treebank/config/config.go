package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

// Input format tags
const (
	FormatCoNLL = "CONLL"
	FormatMST   = "MST"
)

// Options selects how sentence blocks are read. It is fixed for a whole run
// and consulted read-only by the reader.
type Options struct {
	Format string `yaml:"format"`

	DiscourseMode    bool `yaml:"discourse_mode"`
	ConfidenceScores bool `yaml:"confidence_scores"`

	// IgnoreSurfaceForms is accepted for compatibility with existing option
	// files. Forms are never masked by the reader.
	IgnoreSurfaceForms bool `yaml:"ignore_surface_forms"`
	IgnoreLemmas       bool `yaml:"ignore_lemmas"`
	IgnoreCposTags     bool `yaml:"ignore_cpos_tags"`
	IgnorePosTags      bool `yaml:"ignore_pos_tags"`
	IgnoreMorphology   bool `yaml:"ignore_morphology"`
}

// DefaultOptions returns options for plain CoNLL input with nothing masked
func DefaultOptions() Options {
	return Options{Format: FormatCoNLL}
}

// FormatTag returns the upper-cased format tag, defaulting to CONLL
func (o Options) FormatTag() string {
	tag := strings.ToUpper(strings.TrimSpace(o.Format))
	if tag == "" {
		return FormatCoNLL
	}
	return tag
}

// Validate checks that the format is known and can honor the selected modes
func (o Options) Validate() error {
	switch o.FormatTag() {
	case FormatCoNLL:
		return nil
	case FormatMST:
		if o.DiscourseMode {
			return fmt.Errorf("%w: discourse mode requires %s input", internalerr.ErrInvalidConfig, FormatCoNLL)
		}
		if o.ConfidenceScores {
			return fmt.Errorf("%w: %s input has no confidence column", internalerr.ErrInvalidConfig, FormatMST)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidConfig, o.Format)
	}
}

// LoadOptions loads reader options from a YAML file. Keys missing from the
// file keep their DefaultOptions value.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &opts, nil
}
