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

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

func newCombineCmd(app *App) *cobra.Command {
	var (
		inFile   string
		setID    string
		outFile  string
		asBase64 bool
	)

	cmd := &cobra.Command{
		Use:   "combine [share...]",
		Short: "Rebuild a secret from shares",
		Long: `Combine rebuilds a secret from shares given as arguments, from --in (one
share per line, - for stdin) or from a stored share set with --set.`,
		Example: `  shamir combine AQAAAA... AQAAAA... AQAAAA...
  shamir combine --in shares.txt --out secret.bin
  shamir combine --set 6f1c... --base64`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := collectShares(app, cmd, args, inFile, setID)
			if err != nil {
				return err
			}

			dealer, err := app.Dealer()
			if err != nil {
				return err
			}
			secret, err := dealer.RebuildSecret(shares)
			if err != nil {
				return err
			}
			defer clear(secret)

			if outFile != "" {
				if err := os.WriteFile(filepath.Clean(outFile), secret, 0600); err != nil {
					return fmt.Errorf("failed to write secret: %w", err)
				}
				return app.Printer(cmd).PrintSuccess(fmt.Sprintf("secret written to %s", outFile))
			}
			return app.Printer(cmd).PrintSecret(secret, asBase64)
		},
	}

	cmd.Flags().StringVar(&inFile, "in", "", "file with one share per line, - for stdin")
	cmd.Flags().StringVar(&setID, "set", "", "rebuild from a stored share set")
	cmd.Flags().StringVar(&outFile, "out", "", "write the secret to a file (mode 0600)")
	cmd.Flags().BoolVar(&asBase64, "base64", false, "print the secret base64 encoded")
	cmd.MarkFlagsMutuallyExclusive("in", "set")
	return cmd
}

// collectShares gathers shares from exactly one of args, a share file or a
// stored set.
func collectShares(app *App, cmd *cobra.Command, args []string, inFile, setID string) ([]*shamir.Share, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, inFile != "", setID != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, fmt.Errorf("%w: provide shares as arguments, with --in, or with --set", shamir.ErrInvalidArgument)
	}

	switch {
	case setID != "":
		store, err := app.Store()
		if err != nil {
			return nil, err
		}
		m, shares, err := store.Load(setID)
		if err != nil {
			return nil, err
		}
		if uint64(len(shares)) < m.Threshold {
			return nil, fmt.Errorf("%w: share set %s has %d of %d required shares",
				shamir.ErrInvalidArgument, setID, len(shares), m.Threshold)
		}
		return shares, nil
	case inFile != "":
		lines, err := readShareLines(cmd.InOrStdin(), inFile)
		if err != nil {
			return nil, err
		}
		return shamir.ParseShares(lines)
	default:
		return shamir.ParseShares(args)
	}
}

func readShareLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open share file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shares: %w", err)
	}
	return lines, nil
}
