package reader

import (
	"fmt"
	"regexp"

	"github.com/cognicore/treebank/pkg/treebank/config"
	"github.com/cognicore/treebank/pkg/treebank/instance"
	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

// BlockSource reads one input format. ReadBlock consumes one sentence from
// lines and returns io.EOF when no lines are pending.
type BlockSource interface {
	Format() string
	ContainsLabels(path string) (bool, error)
	ReadBlock(lines *LineReader, labeled bool) (*instance.Instance, error)
}

// NewSource returns the block source for opts.Format
func NewSource(opts config.Options) (BlockSource, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	switch opts.FormatTag() {
	case config.FormatCoNLL:
		return &conllSource{opts: opts}, nil
	case config.FormatMST:
		return &mstSource{opts: opts}, nil
	}
	return nil, fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidConfig, opts.Format)
}

var numberPattern = regexp.MustCompile(`^(?:[0-9]+|[0-9]+\.[0-9]+|[0-9]+[0-9,]+)$`)

// NumberToken replaces numeric forms and lemmas
const NumberToken = "<num>"

// normalize collapses numbers so they share one vocabulary entry
func normalize(s string) string {
	if numberPattern.MatchString(s) {
		return NumberToken
	}
	return s
}

// mask applies a field-ignore switch
func mask(value string, ignore bool) string {
	if ignore {
		return instance.Masked
	}
	return value
}

// rootFeatures builds the placeholder features of the root token
func rootFeatures(width int) []string {
	feats := make([]string, width)
	for k := range feats {
		feats[k] = fmt.Sprintf("%s%d", instance.RootFeatPrefix, k)
	}
	return feats
}
