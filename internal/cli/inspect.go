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
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
)

func newInspectCmd(app *App) *cobra.Command {
	var inFile string

	cmd := &cobra.Command{
		Use:   "inspect [share...]",
		Short: "Show share metadata without revealing values",
		RunE: func(cmd *cobra.Command, args []string) error {
			var shares []*shamir.Share
			var err error
			if inFile != "" {
				var lines []string
				lines, err = readShareLines(cmd.InOrStdin(), inFile)
				if err != nil {
					return err
				}
				shares, err = shamir.ParseShares(append(lines, args...))
			} else {
				shares, err = shamir.ParseShares(args)
			}
			if err != nil {
				return err
			}
			return app.Printer(cmd).PrintShareInfo(shares)
		},
	}

	cmd.Flags().StringVar(&inFile, "in", "", "file with one share per line, - for stdin")
	return cmd
}
