package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/treebank/pkg/treebank"
	"github.com/cognicore/treebank/pkg/treebank/config"
	"github.com/cognicore/treebank/pkg/treebank/store/sqlite"
)

type rootFlags struct {
	configPath string
	format     string
	verbose    bool
	topK       int
}

// boolFlags maps command-line switches to option keys
var boolFlags = []struct {
	name, key, usage string
}{
	{"discourse", "discourse_mode", "Transpose features and read relational annotations"},
	{"confidence", "confidence_scores", "Read per-token confidence scores from column 11"},
	{"ignore-forms", "ignore_surface_forms", "Accepted for compatibility; forms are never masked"},
	{"ignore-lemmas", "ignore_lemmas", "Mask lemmas"},
	{"ignore-cpos", "ignore_cpos_tags", "Mask coarse POS tags"},
	{"ignore-pos", "ignore_pos_tags", "Mask POS tags"},
	{"ignore-morphology", "ignore_morphology", "Drop morphological features"},
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "treebank",
		Short:         "Read dependency treebanks in CoNLL or MST format",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rf.configPath, "config", "", "YAML options file")
	pf.StringVar(&rf.format, "format", "", "Input format (CONLL or MST)")
	pf.BoolVarP(&rf.verbose, "verbose", "v", false, "Debug logging")
	pf.IntVar(&rf.topK, "top", treebank.DefaultTopK, "Entries per listing in summaries")
	for _, f := range boolFlags {
		pf.Bool(f.name, false, f.usage)
	}

	root.AddCommand(newStatsCmd(rf), newImportCmd(rf), newProbeCmd(rf))
	return root
}

// loadOptions resolves options from --config and any flag set explicitly
func loadOptions(cmd *cobra.Command, rf *rootFlags) (*config.Options, error) {
	loader := config.Loader{
		OptionsPath: rf.configPath,
		Format:      rf.format,
		Set:         make(map[string]bool),
	}
	flags := cmd.Flags()
	for _, f := range boolFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetBool(f.name)
		if err != nil {
			return nil, err
		}
		loader.Set[f.key] = v
	}
	return loader.Load()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// setup loads options and a logger for a subcommand
func setup(cmd *cobra.Command, rf *rootFlags) (*config.Options, *zap.Logger, error) {
	opts, err := loadOptions(cmd, rf)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(rf.verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return opts, logger, nil
}

func newStatsCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Print corpus statistics as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, logger, err := setup(cmd, rf)
			if err != nil {
				return err
			}
			defer logger.Sync()

			engine := treebank.New(treebank.Options{Reader: *opts, Logger: logger, TopK: rf.topK})
			defer engine.Close()

			res, err := engine.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			return enc.Close()
		},
	}
}

func newImportCmd(rf *rootFlags) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Index sentences into a SQLite database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, logger, err := setup(cmd, rf)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			st, err := sqlite.OpenSQLite(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}

			engine := treebank.New(treebank.Options{Store: st, Reader: *opts, Logger: logger, TopK: rf.topK})
			defer engine.Close()

			out := cmd.OutOrStdout()
			var total int64
			for _, path := range args {
				res, err := engine.Import(ctx, path)
				if err != nil {
					if res.RunID != "" {
						return fmt.Errorf("run %s left unfinished after %d sentences: %w", res.RunID, res.Sentences, err)
					}
					return err
				}
				total += int64(res.Sentences)
				fmt.Fprintf(out, "%s: run %s, %s sentences, %s tokens\n",
					path, res.RunID, humanize.Comma(int64(res.Sentences)), humanize.Comma(res.Tokens))
			}
			if len(args) > 1 {
				fmt.Fprintf(out, "Imported %s sentences from %d files\n", humanize.Comma(total), len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (required)")
	cmd.MarkFlagRequired("db")
	return cmd
}

func newProbeCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE",
		Short: "Report whether a file carries dependency labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd, rf)
			if err != nil {
				return err
			}
			engine := treebank.New(treebank.Options{Reader: *opts})
			labeled, err := engine.Probe(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: format=%s labeled=%t\n", args[0], opts.Format, labeled)
			return nil
		},
	}
}
