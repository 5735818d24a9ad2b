package dashboard

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"incidentflow/internal/storage/sqlite"
)

// Render formats an aggregate as the plain-text board.
func Render(agg Aggregate) string {
	var b strings.Builder
	scope := agg.Filter.Year
	if agg.Filter.Month != "" {
		scope += "-" + agg.Filter.Month
	}
	fmt.Fprintf(&b, "Incident dashboard %s", scope)
	if agg.Filter.ServiceOwner != "" {
		fmt.Fprintf(&b, " owner=%s", agg.Filter.ServiceOwner)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Met SLA:             %.1f%%\n", agg.MetSLAPercent)
	fmt.Fprintf(&b, "Avg extra days:      %.1f\n", agg.AvgExtraDays)
	fmt.Fprintf(&b, "Priority:            P1=%d P2=%d P3=%d P4=%d\n",
		agg.Priority.P1, agg.Priority.P2, agg.Priority.P3, agg.Priority.P4)
	fmt.Fprintf(&b, "Team included:       included=%d notIncluded=%d\n",
		agg.TeamIncluded.Included, agg.TeamIncluded.NotIncluded)
	fmt.Fprintf(&b, "Team responsible:    yes=%d no=%d\n", agg.TeamResponsible.Yes, agg.TeamResponsible.No)
	fmt.Fprintf(&b, "Team fixed:          yes=%d no=%d\n", agg.TeamFixed.Yes, agg.TeamFixed.No)
	fmt.Fprintf(&b, "Duplicate groups:    %d\n", agg.DuplicateGroups)

	writeCountMap(&b, "Systems", agg.SystemDistribution)
	writeCountMap(&b, "Issues", agg.Issues)

	if len(agg.FailedMetrics) > 0 {
		fmt.Fprintf(&b, "\nUnavailable metrics: %s\n", strings.Join(agg.FailedMetrics, ", "))
	}
	return b.String()
}

func writeCountMap(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-24s %d\n", k, counts[k])
	}
}

// WriteSnapshot renders the aggregate into the export dir and records it in
// history. Returns the written path.
func WriteSnapshot(db *sql.DB, exportDir string, agg Aggregate, now time.Time) (string, error) {
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", err
	}
	scope := agg.Filter.Year
	if agg.Filter.Month != "" {
		scope += "-" + agg.Filter.Month
	}
	filename := fmt.Sprintf("dashboard_%s_%s.txt", scope, now.Format("20060102_150405"))
	path := filepath.Join(exportDir, filename)
	if err := os.WriteFile(path, []byte(Render(agg)), 0644); err != nil {
		return "", err
	}

	if err := sqlite.InsertSnapshot(db, sqlite.SnapshotRecord{
		Year:     agg.Filter.Year,
		Month:    agg.Filter.Month,
		Owner:    agg.Filter.ServiceOwner,
		FilePath: path,
	}); err != nil {
		return path, fmt.Errorf("recording snapshot: %w", err)
	}
	return path, nil
}
