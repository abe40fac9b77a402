package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"

	"github.com/oxhq/astir/batch"
	"github.com/oxhq/astir/catalog"
	"github.com/oxhq/astir/db"
	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/models"
	"github.com/oxhq/astir/native"
)

// liftFile parses and lifts one source file. The language is forced when
// given, otherwise detected from the file extension.
func (e *engines) liftFile(ctx context.Context, path, language string) (*native.Node, *ir.Node, string, error) {
	var (
		lifter lift.Lifter
		ok     bool
	)
	if language != "" {
		lifter, ok = e.lifters.Get(language)
		if !ok {
			return nil, nil, "", fmt.Errorf("no lifter registered for language %q", language)
		}
	} else {
		lifter, ok = e.lifters.ForFile(path)
		if !ok {
			return nil, nil, "", fmt.Errorf("cannot detect language for %s (use --lang)", path)
		}
	}

	factory, ok := e.parsers[lifter.Language()]
	if !ok {
		return nil, nil, "", fmt.Errorf("no parser registered for language %q", lifter.Language())
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	tree, err := factory().ParseCtx(ctx, source)
	if err != nil {
		return nil, nil, "", fmt.Errorf("parse failed for %s: %w", path, err)
	}

	node, err := lifter.Lift(tree)
	if err != nil {
		return nil, nil, "", fmt.Errorf("lift failed for %s: %w", path, err)
	}
	return tree, node, lifter.Language(), nil
}

func newLiftCmd(eng *engines) *cobra.Command {
	var langFlag string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "lift <file>",
		Short: "Lift a source file into IR JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, node, _, err := eng.liftFile(cmd.Context(), args[0], langFlag)
			if err != nil {
				return err
			}

			var data []byte
			if pretty {
				data, err = json.MarshalIndent(node, "", "  ")
			} else {
				data, err = json.Marshal(node)
			}
			if err != nil {
				return fmt.Errorf("failed to encode IR: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Source language (inferred from extension if omitted)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	return cmd
}

func newLowerCmd(eng *engines) *cobra.Command {
	var langFlag string

	cmd := &cobra.Command{
		Use:   "lower <ir.json>",
		Short: "Lower IR JSON into a native syntax tree",
		Long:  "Lower reads an IR document and prints the reified native tree as an s-expression. Pass - to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read IR: %w", err)
			}

			var node ir.Node
			if err := json.Unmarshal(data, &node); err != nil {
				return fmt.Errorf("failed to decode IR: %w", err)
			}

			lowerer, ok := eng.lowerers.Get(langFlag)
			if !ok {
				return fmt.Errorf("no lowerer registered for language %q", langFlag)
			}
			tree, err := lowerer.Lower(&node)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tree.Sexp())
			return nil
		},
	}

	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Target language (required)")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

func newRoundtripCmd(eng *engines) *cobra.Command {
	var langFlag string

	cmd := &cobra.Command{
		Use:   "roundtrip <file>",
		Short: "Lift, lower and re-lift a file, diffing the native trees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, node, language, err := eng.liftFile(cmd.Context(), args[0], langFlag)
			if err != nil {
				return err
			}

			lowerer, ok := eng.lowerers.Get(language)
			if !ok {
				return fmt.Errorf("no lowerer registered for language %q", language)
			}
			lowered, err := lowerer.Lower(node)
			if err != nil {
				return err
			}

			lifter, _ := eng.lifters.Get(language)
			relifted, err := lifter.Lift(lowered)
			if err != nil {
				return fmt.Errorf("re-lift failed: %w", err)
			}

			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(tree.Sexp()),
				B:        difflib.SplitLines(lowered.Sexp()),
				FromFile: args[0],
				ToFile:   args[0] + " (lowered)",
				Context:  3,
			})
			if err != nil {
				return fmt.Errorf("diff failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if diff == "" {
				fmt.Fprintln(out, "native trees identical")
			} else {
				fmt.Fprint(out, diff)
			}

			if ir.Equal(node, relifted) {
				fmt.Fprintln(out, "roundtrip: stable")
				return nil
			}
			return fmt.Errorf("roundtrip: IR drifted after lowering %s", args[0])
		},
	}

	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Source language (inferred from extension if omitted)")
	return cmd
}

func newBatchCmd(eng *engines) *cobra.Command {
	var (
		configPath string
		cfg        batchConfig
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Lift every matching file under a directory tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				fileCfg, err := loadBatchConfig(configPath)
				if err != nil {
					return err
				}
				cfg = fileCfg.merge(cmd.Flags(), cfg)
			}
			if cfg.Root == "" {
				cfg.Root = "."
			}
			if cfg.DB == "" {
				cfg.DB = os.Getenv("ASTIR_DB")
			}

			processor := batch.NewProcessor(eng.lifters, eng.parsers)
			results, summary, err := processor.Process(cmd.Context(), batch.Scope{
				Root:     cfg.Root,
				Include:  cfg.Include,
				Exclude:  cfg.Exclude,
				Language: cfg.Language,
				MaxDepth: cfg.MaxDepth,
				MaxFiles: cfg.MaxFiles,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, res := range results {
				if res.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", res.Path, res.Err)
					continue
				}
				fmt.Fprintf(out, "lifted %s (%s, %d nodes, depth %d)\n",
					res.Path, res.Language, res.NodeCount, res.Depth)
			}

			if cfg.DB != "" {
				if err := persistResults(cfg, results, summary, debug); err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "scanned %d, lifted %d, failed %d in %s\n",
				summary.Scanned, summary.Lifted, summary.Failed, summary.Elapsed.Round(time.Millisecond))
			if summary.Failed > 0 {
				return fmt.Errorf("%d file(s) failed to lift", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML batch configuration file")
	cmd.Flags().StringVar(&cfg.Root, "root", "", "Root directory to scan (default: current directory)")
	cmd.Flags().StringSliceVar(&cfg.Include, "include", nil, "Include globs (doublestar)")
	cmd.Flags().StringSliceVar(&cfg.Exclude, "exclude", nil, "Exclude globs (doublestar)")
	cmd.Flags().StringVarP(&cfg.Language, "lang", "l", "", "Force a language instead of extension detection")
	cmd.Flags().IntVar(&cfg.MaxDepth, "max-depth", 0, "Maximum directory depth, 0 for unlimited")
	cmd.Flags().IntVar(&cfg.MaxFiles, "max-files", 0, "Maximum number of files, 0 for unlimited")
	cmd.Flags().StringVar(&cfg.DB, "db", "", "Snapshot store DSN (default: ASTIR_DB)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable database debug logging")
	return cmd
}

// persistResults saves successful lifts to the snapshot store, skipping
// digests that are already cached.
func persistResults(cfg batchConfig, results []batch.FileResult, summary batch.Summary, debug bool) error {
	conn, err := db.Connect(cfg.DB, debug)
	if err != nil {
		return err
	}
	store := db.NewStore(conn)

	session, err := store.BeginSession(cfg.Root)
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Err != nil {
			continue
		}
		cached, err := store.FindByDigest(res.Digest)
		if err != nil {
			return err
		}
		if cached != nil {
			continue
		}

		data, err := json.Marshal(res.IR)
		if err != nil {
			return fmt.Errorf("failed to encode IR for %s: %w", res.Path, err)
		}
		snap := &models.Snapshot{
			SessionID: session.ID,
			Path:      res.Path,
			Language:  res.Language,
			Digest:    res.Digest,
			IR:        datatypes.JSON(data),
			NodeCount: res.NodeCount,
			Depth:     res.Depth,
		}
		if err := store.SaveSnapshot(snap); err != nil {
			return err
		}
	}

	return store.EndSession(session, summary.Scanned, summary.Lifted, summary.Failed)
}

func newLanguagesCmd(eng *engines) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, info := range catalog.Languages() {
				direction := "lift"
				if _, ok := eng.lowerers.Get(info.ID); ok {
					direction = "lift+lower"
				}
				fmt.Fprintf(out, "%-12s %-12s %s\n",
					info.ID, direction, strings.Join(info.Extensions, " "))
			}
			return nil
		},
	}
}
