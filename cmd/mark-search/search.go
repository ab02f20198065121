// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pdiddy/mark-search/internal/federation"
	"github.com/pdiddy/mark-search/internal/tracing"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search every configured registry for a mark",
	Long: `Search normalizes the mark text, queries every configured registry
concurrently and prints one ranked list in which records of the same mark
from different registries are merged. Registries that fail are listed below
the table; when all of them fail a recently cached answer is shown instead,
marked stale.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("jurisdiction", "", "jurisdiction code (e.g. EU, US, GR); empty searches all")
	searchCmd.Flags().IntSlice("class", nil, "Nice class filter (repeatable, 1-45)")
	searchCmd.Flags().String("type", "", "mark type filter: word, figurative, combined, 3d, sound, color, other")
	searchCmd.Flags().String("status", "", "status filter (e.g. registered, published, expired)")
	searchCmd.Flags().Int("offset", 0, "number of ranked results to skip")
	searchCmd.Flags().Int("limit", 0, "page size (default from config)")
	searchCmd.Flags().Bool("json", false, "output the response as JSON")
	searchCmd.Flags().String("save", "", "save the response as a snapshot in this directory")
	searchCmd.Flags().Bool("trace", false, "write trace spans to stderr")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		shutdown, err := tracing.Setup(os.Stderr, "mark-search", version)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	eng, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	flags := cmd.Flags()
	jurisdiction, _ := flags.GetString("jurisdiction")
	classes, _ := flags.GetIntSlice("class")
	markType, _ := flags.GetString("type")
	status, _ := flags.GetString("status")
	offset, _ := flags.GetInt("offset")
	limit, _ := flags.GetInt("limit")

	resp, err := eng.service.Search(ctx, federation.Request{
		Text:         strings.Join(args, " "),
		Jurisdiction: jurisdiction,
		ClassCodes:   classes,
		MarkType:     markType,
		Status:       status,
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		return errors.Wrap(err, "search")
	}

	if dir, _ := flags.GetString("save"); dir != "" {
		path, err := federation.WriteSnapshot(dir, resp)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved snapshot:", path)
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		return federation.FormatJSON(resp, cmd.OutOrStdout())
	}
	federation.FormatTable(resp, cmd.OutOrStdout())
	return nil
}
