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
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/logger"
)

func newSplitCmd(app *App) *cobra.Command {
	var (
		numShares uint64
		threshold uint64
		inFile    string
		isBase64  bool
		save      bool
		name      string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a secret into shares",
		Long: `Split reads a secret from --in (or stdin) and prints N shares, any K of
which rebuild it. The secret is read byte for byte; use --base64 when the
input is base64 text.`,
		Example: `  shamir split -n 5 -k 3 --in secret.bin
  echo -n "Hello World!" | shamir split -n 5 -k 3 --save --name demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin(), inFile, isBase64)
			if err != nil {
				return err
			}
			defer clear(secret)

			dealer, err := app.Dealer()
			if err != nil {
				return err
			}
			shares, err := dealer.GenerateShares(secret, numShares, threshold)
			if err != nil {
				return err
			}

			setID := ""
			if save {
				store, err := app.Store()
				if err != nil {
					return err
				}
				m, err := store.Save(name, threshold, shares)
				if err != nil {
					return err
				}
				setID = m.ID
				app.logger.Debug("shares saved", logger.String("set_id", setID))
			}

			return app.Printer(cmd).PrintShares(shares, threshold, setID)
		},
	}

	cmd.Flags().Uint64VarP(&numShares, "shares", "n", 5, "total number of shares (N)")
	cmd.Flags().Uint64VarP(&threshold, "threshold", "k", 3, "shares required to rebuild (K)")
	cmd.Flags().StringVar(&inFile, "in", "-", "secret file, - for stdin")
	cmd.Flags().BoolVar(&isBase64, "base64", false, "input is base64 encoded")
	cmd.Flags().BoolVar(&save, "save", false, "keep the shares in the share set store")
	cmd.Flags().StringVar(&name, "name", "", "share set name (with --save)")
	return cmd
}

func readSecret(stdin io.Reader, path string, isBase64 bool) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" || path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	if !isBase64 {
		return data, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	clear(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 secret: %w", err)
	}
	return decoded, nil
}
