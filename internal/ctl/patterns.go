package ctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/large-farva/presence-engine/internal/glyph"
)

// PatternsResponse mirrors GET /api/patterns.
type PatternsResponse struct {
	Patterns []glyph.Pattern `json:"patterns"`
	Mappings []glyph.Mapping `json:"mappings"`
}

// Patterns prints the scores from the most recent evaluation next to the
// pattern → state mapping table.
func Patterns(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp PatternsResponse
	if err := getJSON(baseURL, "/api/patterns", &resp); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  PATTERN SCORES"))
	fmt.Println()
	fmt.Println(indent(patternTable(resp)))
	fmt.Println()
	return nil
}

func patternTable(resp PatternsResponse) string {
	scores := make(map[glyph.PatternType]glyph.Pattern, len(resp.Patterns))
	for _, p := range resp.Patterns {
		scores[p.Type] = p
	}

	rows := make([][]string, 0, len(resp.Mappings))
	for _, m := range resp.Mappings {
		p, scored := scores[m.Pattern]
		conf := colorize(dim, "-")
		sigs := ""
		if scored {
			conf = fmt.Sprintf("%s %3d%%", progressBar(p.Confidence, 10), p.Confidence)
			if p.Confidence >= m.RequiredConfidence {
				conf += colorize(green, " *")
			}
			sigs = strings.Join(p.Signals, ", ")
		}
		rows = append(rows, []string{
			string(m.Pattern),
			conf,
			colorize(stateColor(string(m.Target)), string(m.Target)),
			strconv.Itoa(m.RequiredConfidence) + "%",
			strconv.Itoa(m.Priority),
			sigs,
		})
	}
	return renderTable(
		[]string{"PATTERN", "CONFIDENCE", "TARGET", "REQUIRED", "PRIORITY", "SIGNALS"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
