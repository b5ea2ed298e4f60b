package instance

import (
	"fmt"
	"slices"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

// Layout tells how a feature matrix is oriented
type Layout int

const (
	// PerTokenLayout indexes by token, then by feature position
	PerTokenLayout Layout = iota
	// TransposedLayout indexes by feature position, then by token
	TransposedLayout
)

func (l Layout) String() string {
	switch l {
	case PerTokenLayout:
		return "per-token"
	case TransposedLayout:
		return "transposed"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Features is the morphological feature matrix of one sentence. The layout is
// fixed when the value is built; use ToTransposed/ToPerToken to convert.
type Features struct {
	layout Layout
	cells  [][]string
	tokens int
}

// PerToken wraps a token-major matrix. Rows may differ in length.
func PerToken(rows [][]string) Features {
	return Features{layout: PerTokenLayout, cells: rows, tokens: len(rows)}
}

// Transposed wraps a feature-major matrix whose rows each hold one value per token
func Transposed(cols [][]string, tokens int) (Features, error) {
	for j, col := range cols {
		if len(col) != tokens {
			return Features{}, fmt.Errorf("%w: feature %d has %d tokens, want %d", internalerr.ErrStructural, j, len(col), tokens)
		}
	}
	return Features{layout: TransposedLayout, cells: cols, tokens: tokens}, nil
}

// Layout reports the active layout
func (f Features) Layout() Layout { return f.layout }

// Tokens returns the number of tokens covered, root included
func (f Features) Tokens() int { return f.tokens }

// Width returns the feature count of the root token
func (f Features) Width() int {
	if f.layout == TransposedLayout {
		return len(f.cells)
	}
	if f.tokens == 0 {
		return 0
	}
	return len(f.cells[0])
}

// Token returns the features of token i regardless of layout
func (f Features) Token(i int) []string {
	if f.layout == PerTokenLayout {
		return slices.Clone(f.cells[i])
	}
	out := make([]string, len(f.cells))
	for j, col := range f.cells {
		out[j] = col[i]
	}
	return out
}

// Rows returns a copy of the token-major matrix; ok is false for the transposed layout
func (f Features) Rows() (rows [][]string, ok bool) {
	if f.layout != PerTokenLayout {
		return nil, false
	}
	return cloneMatrix(f.cells), true
}

// Columns returns a copy of the feature-major matrix; ok is false for the per-token layout
func (f Features) Columns() (cols [][]string, ok bool) {
	if f.layout != TransposedLayout {
		return nil, false
	}
	return cloneMatrix(f.cells), true
}

// ToTransposed converts to the feature-major layout. Every token must have as
// many features as the root.
func (f Features) ToTransposed() (Features, error) {
	if f.layout == TransposedLayout {
		return f, nil
	}
	cols, err := Transpose(f.cells, f.Width())
	if err != nil {
		return Features{}, err
	}
	return Features{layout: TransposedLayout, cells: cols, tokens: f.tokens}, nil
}

// ToPerToken converts to the token-major layout
func (f Features) ToPerToken() Features {
	if f.layout == PerTokenLayout {
		return f
	}
	// Transposed values are rectangular by construction
	rows, _ := Transpose(f.cells, f.tokens)
	return Features{layout: PerTokenLayout, cells: rows, tokens: f.tokens}
}

// Transpose returns out with out[j][i] == m[i][j]. Every row of m must have
// exactly width entries; a ragged row is reported rather than padded.
func Transpose(m [][]string, width int) ([][]string, error) {
	for i, row := range m {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", internalerr.ErrStructural, i, len(row), width)
		}
	}

	out := make([][]string, width)
	for j := range out {
		out[j] = make([]string, len(m))
		for i, row := range m {
			out[j][i] = row[j]
		}
	}
	return out, nil
}

func cloneMatrix(m [][]string) [][]string {
	out := make([][]string, len(m))
	for i, row := range m {
		out[i] = slices.Clone(row)
	}
	return out
}
