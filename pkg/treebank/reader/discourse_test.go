package reader

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/treebank/pkg/treebank/config"
	"github.com/cognicore/treebank/pkg/treebank/instance"
	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

func discourseOptions() config.Options {
	opts := config.DefaultOptions()
	opts.DiscourseMode = true
	return opts
}

const discourseInput = "1\tJohn\tjohn\tNNP\tNNP\tseg=1|para=1\t2\tSUBJ\n" +
	"2\tran\trun\tVBD\tVBD\tseg=1|para=1\t0\tROOT\n" +
	"* relation same-para\n" +
	"1 yes yes\n" +
	"2 yes yes\n" +
	"* relation distance\n" +
	"1 0 1\n" +
	"2 1 0\n" +
	"\n" +
	"1\tIt\tit\tPRP\tPRP\tseg=2|para=1\t0\tROOT\n" +
	"\n"

func TestDiscourseTransposesFeatures(t *testing.T) {
	r := newTestReader(t, discourseInput, true, discourseOptions())

	inst, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	feats := inst.Features()
	if feats.Layout() != instance.TransposedLayout {
		t.Fatalf("Expected transposed layout, got %s", feats.Layout())
	}
	cols, _ := feats.Columns()
	want := [][]string{
		{"<root-feat>0", "seg=1", "seg=1"},
		{"<root-feat>1", "para=1", "para=1"},
	}
	if diff := cmp.Diff(want, cols); diff != "" {
		t.Errorf("feature columns mismatch (-want +got):\n%s", diff)
	}
	if _, ok := feats.Rows(); ok {
		t.Error("Transposed features must not be readable as rows")
	}
}

func TestDiscourseRelationalGroup(t *testing.T) {
	r := newTestReader(t, discourseInput, true, discourseOptions())

	inst, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	rels := inst.Relational()
	if len(rels) != 2 {
		t.Fatalf("Expected 2 relational features, got %d", len(rels))
	}
	if rels[0].Name != "same-para" || rels[1].Name != "distance" {
		t.Errorf("Relations out of order: %s, %s", rels[0].Name, rels[1].Name)
	}
	if got := rels[1].Feature(1, 2); got != "distance=1" {
		t.Errorf("Feature(1,2) = %q", got)
	}
	if got := rels[1].Feature(0, 1); got != "distance=NULL" {
		t.Errorf("Feature(0,1) = %q", got)
	}

	next, err := r.Next()
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if next.Form(1) != "It" || len(next.Relational()) != 0 {
		t.Errorf("Second sentence should be 'It' without relations, got %q with %d", next.Form(1), len(next.Relational()))
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestDiscourseRelationalGroupAtEOF(t *testing.T) {
	input := "1\tJohn\tjohn\tNNP\tNNP\tx\t0\tROOT\n" +
		"* relation r\n" +
		"1 a"
	r := newTestReader(t, input, true, discourseOptions())

	inst, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(inst.Relational()) != 1 {
		t.Errorf("Expected 1 relational feature, got %d", len(inst.Relational()))
	}
}

func TestDiscourseTruncatedRelation(t *testing.T) {
	input := "1\tJohn\tjohn\tNNP\tNNP\tx\t2\tSUBJ\n" +
		"2\tran\trun\tVBD\tVBD\tx\t0\tROOT\n" +
		"* relation r\n" +
		"1 a b\n"
	r := newTestReader(t, input, true, discourseOptions())

	_, err := r.Next()
	if !errors.Is(err, internalerr.ErrMalformedField) {
		t.Errorf("Expected ErrMalformedField, got %v", err)
	}
}

func TestDiscourseRaggedFeatures(t *testing.T) {
	input := "1\tJohn\tjohn\tNNP\tNNP\tcase=nom\t2\tSUBJ\n" +
		"2\tran\trun\tVBD\tVBD\ttense=past|num=sg\t0\tROOT\n\n"
	r := newTestReader(t, input, true, discourseOptions())

	_, err := r.Next()
	if !errors.Is(err, internalerr.ErrStructural) {
		t.Errorf("Expected ErrStructural, got %v", err)
	}
}

func TestSententialModeAllowsRaggedFeatures(t *testing.T) {
	input := "1\tJohn\tjohn\tNNP\tNNP\tcase=nom\t2\tSUBJ\n" +
		"2\tran\trun\tVBD\tVBD\ttense=past|num=sg\t0\tROOT\n\n"
	r := newTestReader(t, input, true, config.DefaultOptions())

	inst, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got := len(inst.Features().Token(2)); got != 2 {
		t.Errorf("Expected 2 features on token 2, got %d", got)
	}
	if inst.Features().Width() != 1 {
		t.Errorf("Root width follows token 1, got %d", inst.Features().Width())
	}
}

func TestDiscourseTransposeInvertible(t *testing.T) {
	for _, width := range []int{1, 3, 5} {
		var b strings.Builder
		for tok := 1; tok <= 4; tok++ {
			feats := make([]string, width)
			for k := range feats {
				feats[k] = fmt.Sprintf("f%d=%d", k, tok)
			}
			head := 0
			if tok > 1 {
				head = 1
			}
			fmt.Fprintf(&b, "%d\tw%d\tw%d\tN\tNN\t%s\t%d\tDEP\n", tok, tok, tok, strings.Join(feats, "|"), head)
		}
		b.WriteString("\n")
		input := b.String()

		sentential, err := newTestReader(t, input, true, config.DefaultOptions()).Next()
		if err != nil {
			t.Fatalf("width %d sentential Next: %v", width, err)
		}
		discourse, err := newTestReader(t, input, true, discourseOptions()).Next()
		if err != nil {
			t.Fatalf("width %d discourse Next: %v", width, err)
		}

		want, _ := sentential.Features().Rows()
		got, ok := discourse.Features().ToPerToken().Rows()
		if !ok {
			t.Fatalf("width %d: ToPerToken should yield rows", width)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("width %d: transposing back differs (-want +got):\n%s", width, diff)
		}
	}
}
