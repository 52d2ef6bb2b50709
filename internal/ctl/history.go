package ctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/large-farva/presence-engine/internal/engine"
)

// History prints the most recent glyph state changes, oldest first.
// A count of zero asks for the full retained history.
func History(baseURL string, count int, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	path := "/api/history"
	if count > 0 {
		path += "?count=" + strconv.Itoa(count)
	}

	var resp struct {
		History []engine.HistoryEntry `json:"history"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  STATE HISTORY"))
	fmt.Println()
	if len(resp.History) == 0 {
		fmt.Println(colorize(dim, "  no state changes recorded"))
		fmt.Println()
		return nil
	}
	fmt.Println(indent(historyTable(resp.History)))
	fmt.Println()
	return nil
}

func historyTable(entries []engine.HistoryEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		pattern := string(e.Pattern)
		if pattern == "" {
			pattern = "-"
		}
		rows = append(rows, []string{
			e.At.Local().Format("15:04:05.000"),
			colorize(stateColor(string(e.State)), string(e.State)),
			pattern,
			e.Reason,
		})
	}
	return renderTable(
		[]string{"TIME", "STATE", "PATTERN", "REASON"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	)
}
