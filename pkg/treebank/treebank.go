package treebank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/treebank/pkg/treebank/config"
	"github.com/cognicore/treebank/pkg/treebank/reader"
	"github.com/cognicore/treebank/pkg/treebank/stats"
	"github.com/cognicore/treebank/pkg/treebank/store"
)

// DefaultTopK is the listing size used in summaries when Options.TopK is unset
const DefaultTopK = 10

// Treebank is the import facade: it reads treebank files and feeds every
// sentence to the statistics counter and, when configured, the sentence store.
type Treebank struct {
	store  store.Store
	opts   config.Options
	logger *zap.Logger
	topK   int
	now    func() time.Time
}

// Options configures a Treebank instance
type Options struct {
	Store  store.Store // nil imports compute statistics only
	Reader config.Options
	Logger *zap.Logger
	TopK   int
}

// ImportResult describes one import. Complete is false when it stopped early.
type ImportResult struct {
	RunID     string        `yaml:"run_id,omitempty" json:"run_id,omitempty"`
	Source    string        `yaml:"source" json:"source"`
	Format    string        `yaml:"format" json:"format"`
	Labeled   bool          `yaml:"labeled" json:"labeled"`
	Complete  bool          `yaml:"complete" json:"complete"`
	Sentences int           `yaml:"sentences" json:"sentences"`
	Tokens    int64         `yaml:"tokens" json:"tokens"`
	Summary   stats.Summary `yaml:"summary" json:"summary"`
}

// New creates a Treebank with the given dependencies
func New(opts Options) *Treebank {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Treebank{
		store:  opts.Store,
		opts:   opts.Reader,
		logger: logger,
		topK:   topK,
		now:    time.Now,
	}
}

// Close cleanly shuts down the Treebank instance
func (tb *Treebank) Close() error {
	if tb.store == nil {
		return nil
	}
	return tb.store.Close()
}

// Import reads every sentence of path. Cancellation is checked between
// sentences; the reader is always closed. A format error aborts the file.
// On error the result still carries the run ID and the sentences stored so
// far; the run is left unfinished in the store.
func (tb *Treebank) Import(ctx context.Context, path string) (ImportResult, error) {
	if err := tb.opts.Validate(); err != nil {
		return ImportResult{}, err
	}

	r, err := reader.Open(path, tb.opts, tb.logger)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	res := ImportResult{
		Source:  path,
		Format:  r.Format(),
		Labeled: r.Labeled(),
	}

	if tb.store != nil {
		started := tb.now()
		res.RunID = store.NewRunID(started)
		run := store.Run{
			ID:        res.RunID,
			Source:    path,
			Format:    res.Format,
			Labeled:   res.Labeled,
			StartedAt: started,
		}
		if err := tb.store.BeginRun(ctx, run); err != nil {
			return ImportResult{}, fmt.Errorf("begin run: %w", err)
		}
	}

	log := tb.logger.With(zap.String("source", path), zap.String("run_id", res.RunID))
	log.Info("import started", zap.String("format", res.Format), zap.Bool("labeled", res.Labeled))

	counter := stats.NewCounter()
	stored := 0
	for {
		if err := ctx.Err(); err != nil {
			log.Warn("import cancelled", zap.Int("sentences", r.Sentences()))
			return partial(res, stored), err
		}

		inst, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("import failed", zap.Int("sentences", r.Sentences()), zap.Error(err))
			return partial(res, stored), err
		}

		counter.AddInstance(inst)
		if tb.store != nil {
			if err := tb.store.PutSentence(ctx, store.FromInstance(res.RunID, r.Sentences(), inst)); err != nil {
				return partial(res, stored), fmt.Errorf("store sentence %d: %w", r.Sentences(), err)
			}
		}
		stored++
	}

	if tb.store != nil {
		if err := tb.store.FinishRun(ctx, res.RunID, tb.now()); err != nil {
			return partial(res, stored), fmt.Errorf("finish run: %w", err)
		}
	}

	res.Complete = true
	res.Sentences = r.Sentences()
	res.Tokens = counter.Tokens
	res.Summary = counter.Snapshot(tb.topK)

	log.Info("import finished", zap.Int("sentences", res.Sentences), zap.Int64("tokens", res.Tokens))
	return res, nil
}

// partial describes an import that stopped before the end of its input
func partial(res ImportResult, stored int) ImportResult {
	res.Sentences = stored
	return res
}

// Probe reports whether path carries dependency labels for the configured format
func (tb *Treebank) Probe(path string) (bool, error) {
	if err := tb.opts.Validate(); err != nil {
		return false, err
	}
	return reader.ProbeLabels(path, tb.opts)
}
