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
	"fmt"

	"github.com/spf13/cobra"
)

func newSetsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Manage stored share sets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored share sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store()
			if err != nil {
				return err
			}
			sets, err := store.List()
			if err != nil {
				return err
			}
			return app.Printer(cmd).PrintSets(sets)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a share set manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store()
			if err != nil {
				return err
			}
			m, shares, err := store.Load(args[0])
			if err != nil {
				return err
			}
			return app.Printer(cmd).PrintManifest(m, shares)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a share set and its shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			return app.Printer(cmd).PrintSuccess(fmt.Sprintf("share set %s deleted", args[0]))
		},
	})

	return cmd
}
