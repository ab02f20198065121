// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package federation

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/mark-search/pkg/types"
)

// FormatTable writes a response as a human-readable table to w, followed
// by one line per source that failed or was skipped.
func FormatTable(resp *types.SearchResponse, w io.Writer) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-36s  %-4s  %-18s  %-12s  %-5s  %s\n",
			"Rank", "Mark", "Jur", "Status", "Classes", "Score", "Sources")
		fmt.Fprintln(w, strings.Repeat("-", 110))

		for i, c := range resp.Results {
			fmt.Fprintf(w, "%-4d  %-36s  %-4s  %-18s  %-12s  %-5.2f  %s\n",
				resp.Offset+i+1,
				truncate(c.DisplayName, 36),
				c.Jurisdiction,
				c.Status,
				truncate(formatClasses(c.ClassCodes), 12),
				c.CompositeScore,
				strings.Join(c.Sources(), ","))
		}
	}

	fmt.Fprintf(w, "\n%d of %d results", len(resp.Results), resp.TotalMatched)
	switch {
	case resp.Stale:
		fmt.Fprint(w, " (stale: every registry failed)")
	case resp.Cached:
		fmt.Fprint(w, " (cached)")
	case resp.Degraded:
		fmt.Fprint(w, " (degraded)")
	}
	fmt.Fprintln(w)

	ids := make([]string, 0, len(resp.PerSourceStats))
	for id := range resp.PerSourceStats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := resp.PerSourceStats[id]
		switch {
		case st.Skipped:
			fmt.Fprintf(w, "  %s: skipped\n", id)
		case st.Failed():
			fmt.Fprintf(w, "  %s: %s after %s\n", id, st.Failure, st.Elapsed.Round(time.Millisecond))
		}
	}
}

// FormatJSON writes the whole response as indented JSON to w.
func FormatJSON(resp *types.SearchResponse, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func formatClasses(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
