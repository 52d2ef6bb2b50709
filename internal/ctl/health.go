package ctl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Health checks daemon liveness via GET /healthz, then asks for the
// component-level checks.
func Health(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	status, _, err := getRaw(baseURL, "/healthz")
	if err != nil {
		if jsonOutput {
			return printJSON(map[string]any{"healthy": false, "url": baseURL, "error": err.Error()})
		}
		return err
	}

	detail, _ := healthDetail(baseURL)
	healthy := status == http.StatusOK && (detail == nil || detail.Healthy)

	if jsonOutput {
		resp := map[string]any{"healthy": healthy, "url": baseURL}
		if detail != nil {
			resp["checks"] = detail.Checks
		}
		return printJSON(resp)
	}

	fmt.Println()
	if healthy {
		fmt.Printf("  %s  presenced is reachable at %s\n", colorize(green, "HEALTHY"), colorize(dim, baseURL))
	} else {
		fmt.Printf("  %s  presenced reports problems at %s\n", colorize(red, "UNHEALTHY"), colorize(dim, baseURL))
	}
	if detail != nil {
		names := make([]string, 0, len(detail.Checks))
		for name := range detail.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c := detail.Checks[name]
			mark := colorize(green, "ok")
			if ok, _ := c["ok"].(bool); !ok {
				mark = colorize(red, "fail")
			}
			note := ""
			if e, _ := c["error"].(string); e != "" {
				note = colorize(dim, "  "+e)
			}
			fmt.Printf("    %s %s%s\n", padRight(name, 12), mark, note)
		}
	}
	fmt.Println()

	return nil
}

type healthReport struct {
	Healthy bool                      `json:"healthy"`
	Checks  map[string]map[string]any `json:"checks"`
}

// healthDetail requests the JSON form of /healthz. A 503 still carries a
// report, so the body is decoded regardless of status.
func healthDetail(baseURL string) (*healthReport, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var r healthReport
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
