package store

import (
	"context"
	"strings"
	"time"

	"github.com/cognicore/treebank/pkg/treebank/instance"
)

// Store indexes the sentences read during import runs
type Store interface {
	Close() error

	// Runs
	BeginRun(ctx context.Context, r Run) error
	FinishRun(ctx context.Context, runID string, finishedAt time.Time) error
	Runs(ctx context.Context) ([]Run, error)

	// Sentences
	PutSentence(ctx context.Context, s Sentence) error
	GetSentence(ctx context.Context, runID string, ordinal int) (Sentence, bool, error)
	CountSentences(ctx context.Context, runID string) (int64, error)
	LabelCounts(ctx context.Context, runID string) (map[string]int64, error)
}

// Run describes one import of one input file. FinishedAt stays zero until
// every sentence of the file has been stored.
type Run struct {
	ID         string
	Source     string
	Format     string
	Labeled    bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Complete reports whether the run read its input to the end
func (r Run) Complete() bool { return !r.FinishedAt.IsZero() }

// Sentence is the stored form of a dependency instance. The synthetic root is
// not stored; Tokens[0] is the first real token.
type Sentence struct {
	RunID         string
	Ordinal       int
	Tokens        []Token
	HasConfidence bool
	Relations     []string // relational feature names, in input order
}

// Token is one stored token. Head uses instance numbering (0 = root).
type Token struct {
	Form       string
	Lemma      string
	CPOS       string
	POS        string
	Feats      string // features joined with "|"
	Head       int
	Deprel     string
	Confidence float64
}

// FromInstance converts an instance into its stored form. Features are read
// per token so both layouts store the same way.
func FromInstance(runID string, ordinal int, inst *instance.Instance) Sentence {
	n := inst.Length()
	scores, hasConf := inst.Confidence()
	feats := inst.Features()

	s := Sentence{
		RunID:         runID,
		Ordinal:       ordinal,
		Tokens:        make([]Token, n),
		HasConfidence: hasConf,
	}
	for i := 1; i <= n; i++ {
		tok := Token{
			Form:   inst.Form(i),
			Lemma:  inst.Lemma(i),
			CPOS:   inst.CPOS(i),
			POS:    inst.POS(i),
			Feats:  strings.Join(feats.Token(i), "|"),
			Head:   inst.Head(i),
			Deprel: inst.Deprel(i),
		}
		if hasConf {
			tok.Confidence = scores[i]
		}
		s.Tokens[i-1] = tok
	}
	for _, rf := range inst.Relational() {
		s.Relations = append(s.Relations, rf.Name)
	}
	return s
}
