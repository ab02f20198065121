// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mark-search/internal/federation"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Work with saved search snapshots",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <file.yaml>",
	Short: "Print a saved search without querying the registries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := federation.ReadSnapshot(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return federation.FormatJSON(&snap.Response, w)
		}
		fmt.Fprintf(w, "Snapshot %s saved %s, query %q\n\n", snap.ID, snap.SavedAt.Format("2006-01-02 15:04:05 MST"), snap.Response.Query.Text())
		federation.FormatTable(&snap.Response, w)
		return nil
	},
}

func init() {
	snapshotShowCmd.Flags().Bool("json", false, "output the response as JSON")

	snapshotCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotCmd)
}
