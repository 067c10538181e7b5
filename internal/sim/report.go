package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"fieldnav/internal/model"
)

// WriteReport serializes a competition outcome as indented JSON.
func WriteReport(w io.Writer, comp model.Competition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(comp); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// SaveReport writes the JSON report to a file.
func SaveReport(path string, comp model.Competition) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	defer f.Close()
	return WriteReport(f, comp)
}

// FormatStandings renders a plain-text leaderboard for CLI output.
func FormatStandings(comp model.Competition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Competition %s: %d days, %d agents\n", comp.ID, comp.Days, len(comp.Agents))
	for _, st := range comp.Standings {
		fmt.Fprintf(&b, "%2d. %-20s %-12s %10.2f\n", st.Rank, st.Name, st.Strategy, st.TotalValue)
	}
	return b.String()
}
