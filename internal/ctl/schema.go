package ctl

import (
	"fmt"
	"sort"
	"strings"
)

// Schema prints the JSON schema of the event stream. With eventType set,
// only that event's schema is shown.
func Schema(baseURL, eventType string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var doc map[string]map[string]any
	if err := getJSON(baseURL, "/api/schema", &doc); err != nil {
		return err
	}

	if eventType != "" {
		s, ok := doc[eventType]
		if !ok {
			return fmt.Errorf("unknown event type %q (have %s)", eventType, strings.Join(schemaTypes(doc), ", "))
		}
		return printJSON(s)
	}

	if jsonOutput {
		return printJSON(doc)
	}

	fmt.Println()
	fmt.Println(header("  EVENT SCHEMA"))
	fmt.Println()
	fmt.Println(indent(schemaTable(doc)))
	fmt.Println(colorize(dim, "  presctl schema <type> for the full schema"))
	fmt.Println()
	return nil
}

func schemaTypes(doc map[string]map[string]any) []string {
	types := make([]string, 0, len(doc))
	for t := range doc {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func schemaTable(doc map[string]map[string]any) string {
	rows := make([][]string, 0, len(doc))
	for _, t := range schemaTypes(doc) {
		props, _ := doc[t]["properties"].(map[string]any)
		fields := make([]string, 0, len(props))
		for name := range props {
			if name == "type" || name == "ts" {
				continue
			}
			fields = append(fields, name)
		}
		sort.Strings(fields)
		rows = append(rows, []string{t, strings.Join(fields, ", ")})
	}
	return renderTable([]string{"EVENT", "FIELDS"}, rows, nil)
}
