// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pdiddy/mark-search/internal/localreg"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the local trademark register",
}

var registryImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import marks from a YAML seed file into the local register",
	Long: `Import reads a YAML file with a top-level "marks" list and upserts every
valid mark by id. A file that has not changed since its last import is
skipped. Invalid marks are reported and do not stop the import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := localreg.Open(cfg.Local)
		if err != nil {
			return err
		}
		defer store.Close()

		sum, err := store.ImportYAML(cmd.Context(), args[0], cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		writeImportSummary(cmd.OutOrStdout(), args[0], sum)
		if sum.Failed > 0 {
			return errors.Newf("%d marks could not be imported", sum.Failed)
		}
		return nil
	},
}

func writeImportSummary(w io.Writer, path string, sum localreg.ImportSummary) {
	if sum.Unchanged {
		fmt.Fprintf(w, "%s unchanged since last import\n", path)
		return
	}
	fmt.Fprintf(w, "%d imported, %d failed\n", sum.Imported, sum.Failed)
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List marks in the local register",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := localreg.Open(cfg.Local)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		marks, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		total, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(marks)
		}
		if len(marks) == 0 {
			fmt.Fprintln(w, "Local register is empty.")
			return nil
		}
		fmt.Fprintf(w, "%-12s  %-36s  %-4s  %-18s  %s\n", "ID", "Mark", "Jur", "Status", "Classes")
		fmt.Fprintln(w, strings.Repeat("-", 90))
		for _, m := range marks {
			classes := make([]string, len(m.ClassCodes))
			for i, c := range m.ClassCodes {
				classes[i] = strconv.Itoa(c)
			}
			fmt.Fprintf(w, "%-12s  %-36s  %-4s  %-18s  %s\n", m.ID, m.Name, m.Jurisdiction, m.Status, strings.Join(classes, ","))
		}
		fmt.Fprintf(w, "\n%d of %d marks\n", len(marks), total)
		return nil
	},
}

func init() {
	registryListCmd.Flags().Int("limit", 50, "maximum number of marks to list")
	registryListCmd.Flags().Bool("json", false, "output marks as JSON")

	registryCmd.AddCommand(registryImportCmd, registryListCmd)
	rootCmd.AddCommand(registryCmd)
}
