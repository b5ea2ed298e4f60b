package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/treebank/pkg/treebank/config"
	"github.com/cognicore/treebank/pkg/treebank/instance"
	"github.com/cognicore/treebank/pkg/treebank/internalerr"
)

// mstLemmaLength is how many leading runes of a form stand in for its lemma
const mstLemmaLength = 5

// mstSource reads sentences as tab-separated rows of forms, POS tags, labels
// (labeled files only) and heads, followed by a blank line.
type mstSource struct {
	opts config.Options
}

func (s *mstSource) Format() string { return config.FormatMST }

// ContainsLabels reports whether the fourth line of path is non-blank, i.e.
// whether the first sentence group has a label row.
func (s *mstSource) ContainsLabels(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for i := 0; i < 4; i++ {
		if !sc.Scan() {
			return false, sc.Err()
		}
	}
	return len(strings.TrimSpace(sc.Text())) > 0, nil
}

func (s *mstSource) ReadBlock(lines *LineReader, labeled bool) (*instance.Instance, error) {
	first, err := lines.ReadLine()
	if errors.Is(err, io.EOF) || (err == nil && first == "") {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read line: %w", err)
	}
	start := lines.Line()

	rowNames := []string{"pos", "head"}
	if labeled {
		rowNames = []string{"pos", "deprel", "head"}
	}
	rows := map[string][]string{"form": strings.Split(first, fieldSeparator)}
	n := len(rows["form"])

	for _, name := range rowNames {
		line, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Line: lines.Line(), Column: name, Err: fmt.Errorf("%w: sentence group ends before %s row", internalerr.ErrMalformedField, name)}
		}
		if err != nil {
			return nil, fmt.Errorf("read line: %w", err)
		}
		fields := strings.Split(line, fieldSeparator)
		if len(fields) != n {
			return nil, &ParseError{Line: lines.Line(), Column: name, Err: fmt.Errorf("%w: %d entries, forms row has %d", internalerr.ErrMalformedField, len(fields), n)}
		}
		rows[name] = fields
	}

	// Groups are separated by a single blank line; EOF also ends the group
	sep, err := lines.ReadLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read line: %w", err)
	}
	if err == nil && strings.TrimSpace(sep) != "" {
		return nil, &ParseError{Line: lines.Line(), Err: fmt.Errorf("%w: expected blank line after sentence group", internalerr.ErrMalformedField)}
	}

	forms := make([]string, n+1)
	lemmas := make([]string, n+1)
	cpos := make([]string, n+1)
	pos := make([]string, n+1)
	feats := make([][]string, n+1)
	deprels := make([]string, n+1)
	heads := make([]int, n+1)

	forms[0] = instance.RootForm
	lemmas[0] = instance.RootLemma
	cpos[0] = instance.RootCPOS
	pos[0] = instance.RootPOS
	feats[0] = rootFeatures(0)
	deprels[0] = instance.NoType
	heads[0] = instance.NoHead

	for i := 0; i < n; i++ {
		t := i + 1
		forms[t] = normalize(rows["form"][i])
		lemmas[t] = mask(prefixRunes(forms[t], mstLemmaLength), s.opts.IgnoreLemmas)
		cpos[t] = mask(prefixRunes(rows["pos"][i], 1), s.opts.IgnoreCposTags)
		pos[t] = mask(rows["pos"][i], s.opts.IgnorePosTags)
		feats[t] = []string{}
		if labeled {
			deprels[t] = rows["deprel"][i]
		} else {
			deprels[t] = instance.NoType
		}

		head, err := strconv.Atoi(rows["head"][i])
		if err != nil {
			return nil, &ParseError{Line: start + len(rowNames), Column: "head", Err: fmt.Errorf("%w: %w", internalerr.ErrMalformedField, err)}
		}
		if head < 0 || head > n {
			return nil, &ParseError{Line: start + len(rowNames), Column: "head", Err: fmt.Errorf("%w: head %d outside [0,%d]", internalerr.ErrMalformedField, head, n)}
		}
		heads[t] = head
	}

	inst, err := instance.New(instance.Columns{
		Forms:    forms,
		Lemmas:   lemmas,
		CPOS:     cpos,
		POS:      pos,
		Features: instance.PerToken(feats),
		Deprels:  deprels,
		Heads:    heads,
	})
	if err != nil {
		return nil, &ParseError{Line: start, Err: err}
	}
	return inst, nil
}

func prefixRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
