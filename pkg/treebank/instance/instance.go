package instance

import (
	"fmt"
	"slices"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

// Values held by the synthetic root token at index 0
const (
	RootForm       = "<root>"
	RootLemma      = "<root-LEMMA>"
	RootCPOS       = "<root-CPOS>"
	RootPOS        = "<root-POS>"
	RootFeatPrefix = "<root-feat>"
	NoType         = "<no-type>"
	NoHead         = -1
	RootConfidence = 1.0
)

// Masked replaces a field value whose column is ignored
const Masked = "_"

// Columns carries the parallel arrays for one sentence, root included.
// New takes ownership of every slice.
type Columns struct {
	Forms      []string
	Lemmas     []string
	CPOS       []string
	POS        []string
	Features   Features
	Deprels    []string
	Heads      []int
	Confidence []float64 // nil when the input has no confidence column
	Relational []RelationalFeature
}

// Instance is one dependency-annotated sentence. All per-token arrays have
// Length()+1 entries and index 0 is the synthetic root. Instances are
// immutable; accessors that return slices return copies.
type Instance struct {
	c Columns
}

// New validates the columns and builds an instance
func New(c Columns) (*Instance, error) {
	size := len(c.Forms)
	if size == 0 {
		return nil, fmt.Errorf("%w: instance has no root token", internalerr.ErrStructural)
	}

	sizes := []struct {
		name string
		n    int
	}{
		{"lemmas", len(c.Lemmas)},
		{"cpos", len(c.CPOS)},
		{"pos", len(c.POS)},
		{"deprels", len(c.Deprels)},
		{"heads", len(c.Heads)},
		{"features", c.Features.Tokens()},
	}
	if c.Confidence != nil {
		sizes = append(sizes, struct {
			name string
			n    int
		}{"confidence", len(c.Confidence)})
	}
	for _, s := range sizes {
		if s.n != size {
			return nil, fmt.Errorf("%w: %s has %d entries, forms has %d", internalerr.ErrStructural, s.name, s.n, size)
		}
	}

	if c.Forms[0] != RootForm || c.Lemmas[0] != RootLemma || c.CPOS[0] != RootCPOS || c.POS[0] != RootPOS {
		return nil, fmt.Errorf("%w: index 0 is not the synthetic root", internalerr.ErrStructural)
	}
	if c.Deprels[0] != NoType {
		return nil, fmt.Errorf("%w: root deprel is %q", internalerr.ErrStructural, c.Deprels[0])
	}
	if c.Heads[0] != NoHead {
		return nil, fmt.Errorf("%w: root head is %d", internalerr.ErrStructural, c.Heads[0])
	}
	if c.Confidence != nil && c.Confidence[0] != RootConfidence {
		return nil, fmt.Errorf("%w: root confidence is %v", internalerr.ErrStructural, c.Confidence[0])
	}

	for i := 1; i < size; i++ {
		if h := c.Heads[i]; h < 0 || h >= size {
			return nil, fmt.Errorf("%w: head %d of token %d outside [0,%d]", internalerr.ErrMalformedField, h, i, size-1)
		}
	}

	if c.Relational == nil {
		c.Relational = []RelationalFeature{}
	}

	return &Instance{c: c}, nil
}

// Length returns the number of real tokens
func (in *Instance) Length() int { return len(in.c.Forms) - 1 }

// Form returns the normalized surface form of token i
func (in *Instance) Form(i int) string { return in.c.Forms[i] }

// Lemma returns the lemma of token i, or Masked
func (in *Instance) Lemma(i int) string { return in.c.Lemmas[i] }

// CPOS returns the coarse POS tag of token i, or Masked
func (in *Instance) CPOS(i int) string { return in.c.CPOS[i] }

// POS returns the POS tag of token i, or Masked
func (in *Instance) POS(i int) string { return in.c.POS[i] }

// Deprel returns the dependency label of token i; NoType when unlabeled
func (in *Instance) Deprel(i int) string { return in.c.Deprels[i] }

// Head returns the head index of token i; NoHead for the root
func (in *Instance) Head(i int) int { return in.c.Heads[i] }

// Forms returns a copy of the forms, root included
func (in *Instance) Forms() []string { return slices.Clone(in.c.Forms) }

// Lemmas returns a copy of the lemmas, root included
func (in *Instance) Lemmas() []string { return slices.Clone(in.c.Lemmas) }

// CPOSTags returns a copy of the coarse POS tags, root included
func (in *Instance) CPOSTags() []string { return slices.Clone(in.c.CPOS) }

// POSTags returns a copy of the POS tags, root included
func (in *Instance) POSTags() []string { return slices.Clone(in.c.POS) }

// Deprels returns a copy of the dependency labels, root included
func (in *Instance) Deprels() []string { return slices.Clone(in.c.Deprels) }

// Heads returns a copy of the head indexes, root included
func (in *Instance) Heads() []int { return slices.Clone(in.c.Heads) }

// Features returns the morphological features in the layout chosen at construction
func (in *Instance) Features() Features { return in.c.Features }

// Confidence returns the per-token confidence scores; ok is false when the
// input carried no confidence column.
func (in *Instance) Confidence() (scores []float64, ok bool) {
	if in.c.Confidence == nil {
		return nil, false
	}
	return slices.Clone(in.c.Confidence), true
}

// Relational returns the sentence-level relational features in input order
func (in *Instance) Relational() []RelationalFeature {
	return slices.Clone(in.c.Relational)
}
