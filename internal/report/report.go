// Package report renders supervisor snapshots for callers. Pure formatting:
// no probes, no retries, no side effects.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loykin/appsup/internal/service"
	"github.com/loykin/appsup/internal/supervisor"
)

// Banner maps the aggregate to the human summary line.
func Banner(agg service.AggregateStatus) string {
	switch agg {
	case service.BothRunning:
		return "Running"
	case service.PartiallyRunning:
		return "Partially running"
	default:
		return "Not running"
	}
}

// Text renders one line per service plus the aggregate banner.
func Text(snap supervisor.Snapshot) string {
	var b strings.Builder
	for _, st := range snap.Services {
		fmt.Fprintf(&b, "%-10s %-9s", st.Name, st.Phase)
		if st.PID > 0 {
			fmt.Fprintf(&b, " pid=%d", st.PID)
		}
		if st.Health != "" {
			fmt.Fprintf(&b, " health=%s", st.Health)
		}
		if st.Detail != "" {
			fmt.Fprintf(&b, " (%s)", st.Detail)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "=> %s\n", Banner(snap.Aggregate))
	return b.String()
}

// JSON renders the snapshot in a stable machine-parsable form.
func JSON(snap supervisor.Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}
