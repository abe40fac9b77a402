package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oxhq/astir/batch"
	"github.com/oxhq/astir/lift"
	liftgo "github.com/oxhq/astir/lift/golang"
	liftpy "github.com/oxhq/astir/lift/python"
	"github.com/oxhq/astir/lower"
	lowgo "github.com/oxhq/astir/lower/golang"
	lowpy "github.com/oxhq/astir/lower/python"
)

// engines bundles the per-language abstraction and reification machinery
// the subcommands share.
type engines struct {
	lifters  *lift.Registry
	lowerers *lower.Registry
	parsers  map[string]batch.ParserFactory
}

func newEngines() (*engines, error) {
	lifters := lift.NewRegistry()
	lifters.Register(liftpy.New())
	lifters.Register(liftgo.New())

	fallbacks := lower.NewFallbacks()
	lowerers := lower.NewRegistry()
	if err := lowerers.Register(lowpy.New(fallbacks)); err != nil {
		return nil, err
	}
	if err := lowerers.Register(lowgo.New(fallbacks)); err != nil {
		return nil, err
	}

	return &engines{
		lifters:  lifters,
		lowerers: lowerers,
		parsers: map[string]batch.ParserFactory{
			"python": liftpy.Parser,
			"go":     liftgo.Parser,
		},
	}, nil
}

func newRootCmd() (*cobra.Command, error) {
	eng, err := newEngines()
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           "astir",
		Short:         "Cross-language syntax tree lifting and lowering",
		Long:          "Astir lifts source files into a shared intermediate representation and lowers IR back into language-native syntax trees.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newLiftCmd(eng),
		newLowerCmd(eng),
		newRoundtripCmd(eng),
		newBatchCmd(eng),
		newLanguagesCmd(eng),
	)
	return rootCmd, nil
}

func main() {
	// Optional .env for ASTIR_DB and ASTIR_LIBSQL_AUTH_TOKEN
	_ = godotenv.Load()

	rootCmd, err := newRootCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
