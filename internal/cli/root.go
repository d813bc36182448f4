// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package cli implements the shamir command-line tool.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags holds global flag values.
type Flags struct {
	ConfigFile   string
	OutputFormat string
	Verbose      bool
	RNG          string
	StoreDir     string
	Workers      int
	Metrics      bool
}

// NewRootCmd builds the command tree. Each call returns independent state.
func NewRootCmd() *cobra.Command {
	flags := &Flags{}
	v := viper.New()
	app := &App{flags: flags, viper: v}

	rootCmd := &cobra.Command{
		Use:   "shamir",
		Short: "Shamir secret sharing tool",
		Long: `shamir splits a secret into N shares so that any K of them rebuild it,
while K-1 or fewer reveal nothing about it.

Shares are printed as base64 strings, one per line, and can optionally be
kept in a local share set store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer app.Close()
			if flags.Metrics {
				return dumpMetrics(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "config file (YAML)")
	pf.StringVarP(&flags.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&flags.RNG, "rng", "", "random source (auto, software, tpm2, pkcs11)")
	pf.StringVar(&flags.StoreDir, "store-dir", "", "share set directory")
	pf.IntVar(&flags.Workers, "workers", 0, "goroutines used to evaluate shares")
	pf.BoolVar(&flags.Metrics, "metrics", false, "print operation metrics to stderr on exit")

	_ = v.BindPFlag("rng.mode", pf.Lookup("rng"))
	_ = v.BindPFlag("storage.path", pf.Lookup("store-dir"))
	_ = v.BindPFlag("split.workers", pf.Lookup("workers"))

	rootCmd.AddCommand(
		newSplitCmd(app),
		newCombineCmd(app),
		newInspectCmd(app),
		newSetsCmd(app),
		newServeCmd(app),
		newVersionCmd(app),
	)
	return rootCmd
}

// Execute runs the root command against the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// Main runs the CLI and returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		format, _ := cmd.PersistentFlags().GetString("output")
		if perr := NewPrinter(format, stderr).PrintError(err); perr != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitCode(err)
	}
	return 0
}

// Run is Main wired to the process streams.
func Run() {
	os.Exit(Main(os.Args[1:], os.Stdout, os.Stderr))
}
