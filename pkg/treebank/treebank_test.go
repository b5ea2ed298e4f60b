package treebank

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/treebank/pkg/treebank/config"
	"github.com/cognicore/treebank/pkg/treebank/internalerr"
	"github.com/cognicore/treebank/pkg/treebank/reader"
	"github.com/cognicore/treebank/pkg/treebank/store/memstore"
)

const twoSentences = "1\tJohn\tjohn\tN\tNNP\t_\t2\tSBJ\n" +
	"2\tran\trun\tV\tVBD\t_\t0\tROOT\n" +
	"\n" +
	"1\tDogs\tdog\tN\tNNS\t_\t2\tSBJ\n" +
	"2\tbark\tbark\tV\tVBP\t_\t0\tROOT\n" +
	"3\tloudly\tloudly\tR\tRB\t_\t2\tADV\n" +
	"\n"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.conll")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestImportStoresSentences(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, twoSentences)

	st := memstore.New()
	core, logs := observer.New(zap.InfoLevel)
	engine := New(Options{Store: st, Reader: config.DefaultOptions(), Logger: zap.New(core)})
	defer engine.Close()

	res, err := engine.Import(ctx, path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if res.RunID == "" {
		t.Error("Expected a run ID when a store is configured")
	}
	if res.Sentences != 2 {
		t.Errorf("Expected 2 sentences, got %d", res.Sentences)
	}
	if res.Tokens != 5 {
		t.Errorf("Expected 5 tokens, got %d", res.Tokens)
	}
	if !res.Labeled {
		t.Error("Expected labeled input")
	}
	if res.Summary.RootArcs != 2 {
		t.Errorf("Expected 2 root arcs, got %d", res.Summary.RootArcs)
	}

	n, _ := st.CountSentences(ctx, res.RunID)
	if n != 2 {
		t.Errorf("Expected 2 stored sentences, got %d", n)
	}
	sent, ok, _ := st.GetSentence(ctx, res.RunID, 2)
	if !ok {
		t.Fatal("Expected sentence 2 in store")
	}
	if len(sent.Tokens) != 3 || sent.Tokens[2].Form != "loudly" {
		t.Errorf("Expected second sentence ending in loudly, got %+v", sent.Tokens)
	}

	labels, _ := st.LabelCounts(ctx, res.RunID)
	if labels["SBJ"] != 2 || labels["ADV"] != 1 {
		t.Errorf("Expected SBJ=2 ADV=1, got %v", labels)
	}

	if logs.FilterMessage("import finished").Len() != 1 {
		t.Errorf("Expected one 'import finished' log entry, got %d", logs.FilterMessage("import finished").Len())
	}
}

func TestImportMarksRunComplete(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	engine := New(Options{Store: st, Reader: config.DefaultOptions()})
	defer engine.Close()

	started := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	finished := started.Add(time.Second)
	calls := 0
	engine.now = func() time.Time {
		calls++
		if calls == 1 {
			return started
		}
		return finished
	}

	res, err := engine.Import(ctx, writeFile(t, twoSentences))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !res.Complete {
		t.Error("Expected a complete import")
	}

	runs, _ := st.Runs(ctx)
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if !run.StartedAt.Equal(started) {
		t.Errorf("Expected StartedAt %v, got %v", started, run.StartedAt)
	}
	if !run.FinishedAt.Equal(finished) || !run.Complete() {
		t.Errorf("Expected FinishedAt %v, got %v", finished, run.FinishedAt)
	}

	id, err := ulid.Parse(run.ID)
	if err != nil {
		t.Fatalf("parse run ID: %v", err)
	}
	if !ulid.Time(id.Time()).Equal(started) {
		t.Errorf("Expected run ID timestamp %v, got %v", started, ulid.Time(id.Time()))
	}
}

func TestImportFailureLeavesRunUnfinished(t *testing.T) {
	ctx := context.Background()
	input := twoSentences + "1\tBad\tbad\tN\tNN\t_\tx\tROOT\n\n"
	path := writeFile(t, input)

	st := memstore.New()
	engine := New(Options{Store: st, Reader: config.DefaultOptions()})
	defer engine.Close()

	res, err := engine.Import(ctx, path)
	if !errors.Is(err, internalerr.ErrMalformedField) {
		t.Fatalf("Expected ErrMalformedField, got %v", err)
	}
	if res.RunID == "" {
		t.Fatal("Expected the run ID of the failed import")
	}
	if res.Complete {
		t.Error("Expected an incomplete import")
	}
	if res.Sentences != 2 {
		t.Errorf("Expected 2 stored sentences reported, got %d", res.Sentences)
	}

	runs, _ := st.Runs(ctx)
	if len(runs) != 1 || runs[0].ID != res.RunID {
		t.Fatalf("Expected run %s in store, got %v", res.RunID, runs)
	}
	if runs[0].Complete() {
		t.Error("A failed import must not be marked complete")
	}
	n, _ := st.CountSentences(ctx, res.RunID)
	if n != 2 {
		t.Errorf("Expected 2 sentences before the failure, got %d", n)
	}
}

func TestImportWithoutStore(t *testing.T) {
	path := writeFile(t, twoSentences)
	engine := New(Options{Reader: config.DefaultOptions()})
	defer engine.Close()

	res, err := engine.Import(context.Background(), path)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.RunID != "" {
		t.Errorf("Expected no run ID without a store, got %q", res.RunID)
	}
	if res.Summary.Sentences != 2 {
		t.Errorf("Expected summary of 2 sentences, got %d", res.Summary.Sentences)
	}
}

func TestImportMalformedAborts(t *testing.T) {
	path := writeFile(t, "1\tJohn\tjohn\tN\tNNP\t_\tx\tSBJ\n\n")
	engine := New(Options{Store: memstore.New(), Reader: config.DefaultOptions()})
	defer engine.Close()

	_, err := engine.Import(context.Background(), path)
	if !errors.Is(err, internalerr.ErrMalformedField) {
		t.Fatalf("Expected ErrMalformedField, got %v", err)
	}
	var pe *reader.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *reader.ParseError, got %T", err)
	}
	if pe.Path != path || pe.Line != 1 || pe.Column != "head" {
		t.Errorf("Expected %s:1 head, got %s:%d %s", path, pe.Path, pe.Line, pe.Column)
	}
}

func TestImportCancelled(t *testing.T) {
	path := writeFile(t, twoSentences)
	engine := New(Options{Store: memstore.New(), Reader: config.DefaultOptions()})
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Import(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestImportInvalidConfig(t *testing.T) {
	path := writeFile(t, twoSentences)
	opts := config.Options{Format: "MST", DiscourseMode: true}
	engine := New(Options{Reader: opts})

	if _, err := engine.Import(context.Background(), path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if _, err := engine.Probe(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig from Probe, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	engine := New(Options{Reader: config.DefaultOptions()})

	labeled, err := engine.Probe(writeFile(t, twoSentences))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !labeled {
		t.Error("Expected labeled=true for non-blank first line")
	}

	labeled, err = engine.Probe(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Probe empty: %v", err)
	}
	if labeled {
		t.Error("Expected labeled=false for empty file")
	}
}
