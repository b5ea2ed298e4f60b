package instance

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

// LineSource yields the lines that follow a relational declaration.
// ReadLine returns io.EOF once the stream is exhausted.
type LineSource interface {
	ReadLine() (string, error)
}

// RelationalFeature is a discourse-level relation between the tokens of one
// sentence. It is declared by a line "<marker> <kind> <name>" followed by one
// row per token: a row label and then one value per token.
type RelationalFeature struct {
	Kind   string
	Name   string
	values [][]string
}

// ParseRelationalFeature parses the declaration and pulls size rows from src
func ParseRelationalFeature(size int, declaration string, src LineSource) (RelationalFeature, error) {
	decl := strings.Fields(declaration)
	if len(decl) < 3 {
		return RelationalFeature{}, fmt.Errorf("%w: relational declaration %q needs a kind and a name", internalerr.ErrMalformedField, declaration)
	}

	rf := RelationalFeature{
		Kind:   decl[1],
		Name:   decl[2],
		values: make([][]string, size),
	}

	for i := 0; i < size; i++ {
		line, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			return RelationalFeature{}, fmt.Errorf("%w: relation %s has %d of %d rows", internalerr.ErrMalformedField, rf.Name, i, size)
		}
		if err != nil {
			return RelationalFeature{}, err
		}

		fields := strings.Fields(line)
		if len(fields) != size+1 {
			return RelationalFeature{}, fmt.Errorf("%w: relation %s row %d has %d values, want %d", internalerr.ErrMalformedField, rf.Name, i+1, len(fields)-1, size)
		}
		rf.values[i] = fields[1:]
	}

	return rf, nil
}

// Size returns the number of tokens the relation covers
func (rf RelationalFeature) Size() int { return len(rf.values) }

// Value returns the raw value linking tokens i and j (both 1-based)
func (rf RelationalFeature) Value(i, j int) string {
	return rf.values[i-1][j-1]
}

// Feature renders the relation between tokens i and j as "name=value".
// Either index being the root yields "name=NULL".
func (rf RelationalFeature) Feature(i, j int) string {
	if i == 0 || j == 0 {
		return rf.Name + "=NULL"
	}
	return rf.Name + "=" + rf.Value(i, j)
}
