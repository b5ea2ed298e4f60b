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

// CoNLL column positions
const (
	colForm       = 1
	colLemma      = 2
	colCPOS       = 3
	colPOS        = 4
	colFeats      = 5
	colHead       = 6
	colDeprel     = 7
	colConfidence = 10
)

var conllColumns = [...]string{"id", "form", "lemma", "cpostag", "postag", "feats", "head", "deprel", "phead", "pdeprel", "confidence"}

const (
	fieldSeparator   = "\t"
	featureSeparator = "|"
	blockMarker      = "*"
)

type conllSource struct {
	opts config.Options
}

func (s *conllSource) Format() string { return config.FormatCoNLL }

// ContainsLabels reports whether the first line of path is non-blank. This
// does not check for a label column; an empty file reports false.
func (s *conllSource) ContainsLabels(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	if !sc.Scan() {
		return false, sc.Err()
	}
	return len(strings.TrimSpace(sc.Text())) > 0, nil
}

func (s *conllSource) ReadBlock(lines *LineReader, labeled bool) (*instance.Instance, error) {
	var (
		rows     [][]string
		rowLines []int
		term     string
	)
	for {
		line, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line: %w", err)
		}
		if line == "" || strings.HasPrefix(line, blockMarker) {
			term = line
			break
		}
		rows = append(rows, strings.Split(line, fieldSeparator))
		rowLines = append(rowLines, lines.Line())
	}

	n := len(rows)
	if n == 0 {
		return nil, io.EOF
	}

	need := colHead + 1
	if labeled {
		need = colDeprel + 1
	}
	if s.opts.ConfidenceScores {
		need = colConfidence + 1
	}

	forms := make([]string, n+1)
	lemmas := make([]string, n+1)
	cpos := make([]string, n+1)
	pos := make([]string, n+1)
	feats := make([][]string, n+1)
	deprels := make([]string, n+1)
	heads := make([]int, n+1)
	var conf []float64
	if s.opts.ConfidenceScores {
		conf = make([]float64, n+1)
		conf[0] = instance.RootConfidence
	}

	forms[0] = instance.RootForm
	lemmas[0] = instance.RootLemma
	cpos[0] = instance.RootCPOS
	pos[0] = instance.RootPOS
	deprels[0] = instance.NoType
	heads[0] = instance.NoHead

	for i, info := range rows {
		t := i + 1
		if len(info) < need {
			return nil, &ParseError{
				Line:   rowLines[i],
				Column: conllColumns[len(info)],
				Err:    fmt.Errorf("%w: %d columns, need %d", internalerr.ErrMalformedField, len(info), need),
			}
		}

		forms[t] = normalize(info[colForm])
		lemmas[t] = mask(normalize(info[colLemma]), s.opts.IgnoreLemmas)
		cpos[t] = mask(info[colCPOS], s.opts.IgnoreCposTags)
		pos[t] = mask(info[colPOS], s.opts.IgnorePosTags)
		if s.opts.IgnoreMorphology {
			feats[t] = []string{}
		} else {
			feats[t] = strings.Split(info[colFeats], featureSeparator)
		}
		if labeled {
			deprels[t] = info[colDeprel]
		} else {
			deprels[t] = instance.NoType
		}

		head, err := strconv.Atoi(info[colHead])
		if err != nil {
			return nil, &ParseError{Line: rowLines[i], Column: conllColumns[colHead], Err: fmt.Errorf("%w: %w", internalerr.ErrMalformedField, err)}
		}
		if head < 0 || head > n {
			return nil, &ParseError{Line: rowLines[i], Column: conllColumns[colHead], Err: fmt.Errorf("%w: head %d outside [0,%d]", internalerr.ErrMalformedField, head, n)}
		}
		heads[t] = head

		if s.opts.ConfidenceScores {
			score, err := strconv.ParseFloat(info[colConfidence], 64)
			if err != nil {
				return nil, &ParseError{Line: rowLines[i], Column: conllColumns[colConfidence], Err: fmt.Errorf("%w: %w", internalerr.ErrMalformedField, err)}
			}
			conf[t] = score
		}
	}

	feats[0] = rootFeatures(len(feats[1]))
	features := instance.PerToken(feats)
	if s.opts.DiscourseMode {
		tr, err := features.ToTransposed()
		if err != nil {
			return nil, &ParseError{Line: rowLines[0], Column: conllColumns[colFeats], Err: err}
		}
		features = tr
	}

	var rels []instance.RelationalFeature
	if s.opts.DiscourseMode {
		// A '*' terminator opens the relational group; a blank line or EOF leaves term empty
		for term != "" {
			rf, err := instance.ParseRelationalFeature(n, term, lines)
			if err != nil {
				return nil, &ParseError{Line: lines.Line(), Column: "relation", Err: err}
			}
			rels = append(rels, rf)

			term, err = lines.ReadLine()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("read line: %w", err)
			}
		}
	}

	inst, err := instance.New(instance.Columns{
		Forms:      forms,
		Lemmas:     lemmas,
		CPOS:       cpos,
		POS:        pos,
		Features:   features,
		Deprels:    deprels,
		Heads:      heads,
		Confidence: conf,
		Relational: rels,
	})
	if err != nil {
		return nil, &ParseError{Line: rowLines[0], Err: err}
	}
	return inst, nil
}
