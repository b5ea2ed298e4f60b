package reader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/cognicore/treebank/pkg/treebank/config"
	"github.com/cognicore/treebank/pkg/treebank/instance"
)

// Reader pulls dependency instances from one stream, one sentence per call to
// Next. A Reader is not safe for concurrent use.
type Reader struct {
	src     BlockSource
	lines   *LineReader
	closer  io.Closer
	path    string
	labeled bool
	closed  bool
	count   int
	err     error
	logger  *zap.Logger
}

// Open probes path for labels and opens it for reading with the source
// selected by opts.Format. A nil logger disables logging.
func Open(path string, opts config.Options, logger *zap.Logger) (*Reader, error) {
	src, err := NewSource(opts)
	if err != nil {
		return nil, err
	}

	labeled, err := src.ContainsLabels(path)
	if err != nil {
		return nil, fmt.Errorf("probe labels: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	r := newReader(src, f, labeled, opts, logger)
	r.path = path
	return r, nil
}

// NewReader reads from an already open stream whose label presence is known.
// If in is an io.Closer it is closed with the Reader.
func NewReader(in io.Reader, labeled bool, opts config.Options, logger *zap.Logger) (*Reader, error) {
	src, err := NewSource(opts)
	if err != nil {
		return nil, err
	}
	return newReader(src, in, labeled, opts, logger), nil
}

func newReader(src BlockSource, in io.Reader, labeled bool, opts config.Options, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reader{
		src:     src,
		lines:   NewLineReader(in),
		labeled: labeled,
		logger:  logger,
	}
	if c, ok := in.(io.Closer); ok {
		r.closer = c
	}

	logger.Debug("reader opened",
		zap.String("format", src.Format()),
		zap.Bool("labeled", labeled),
		zap.Bool("discourse_mode", opts.DiscourseMode),
		zap.Bool("confidence_scores", opts.ConfidenceScores),
		zap.Bool("ignore_lemmas", opts.IgnoreLemmas),
		zap.Bool("ignore_cpos_tags", opts.IgnoreCposTags),
		zap.Bool("ignore_pos_tags", opts.IgnorePosTags),
		zap.Bool("ignore_morphology", opts.IgnoreMorphology))
	return r
}

// ProbeLabels runs the label-presence check of the source for opts.Format
func ProbeLabels(path string, opts config.Options) (bool, error) {
	src, err := NewSource(opts)
	if err != nil {
		return false, err
	}
	return src.ContainsLabels(path)
}

// Next returns the next instance. When no sentence is pending the stream is
// closed and io.EOF is returned. Format errors are *ParseError values and
// leave the stream open; the caller must Close it. After an error every later
// call returns the same error.
func (r *Reader) Next() (*instance.Instance, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.closed {
		return nil, io.EOF
	}

	inst, err := r.src.ReadBlock(r.lines, r.labeled)
	if err == io.EOF {
		if cerr := r.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, io.EOF
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = r.path
		}
		r.err = err
		return nil, err
	}

	r.count++
	return inst, nil
}

// Close releases the stream. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.logger.Debug("reader closed", zap.String("path", r.path), zap.Int("sentences", r.count))
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Labeled reports the label flag fixed when the stream was opened
func (r *Reader) Labeled() bool { return r.labeled }

// Sentences returns how many instances Next has returned
func (r *Reader) Sentences() int { return r.count }

// Format returns the tag of the active input format
func (r *Reader) Format() string { return r.src.Format() }
