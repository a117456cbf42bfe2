package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/evalkit/logging"
)

// LogCSVFormat logs results in a form that can be copy-pasted into a spreadsheet.
func LogCSVFormat(logger logging.Logger, results *Results) {
	for _, task := range results.Tasks() {
		metrics, _ := results.Get(task)
		scores := lo.Map(metrics, func(m Metric, _ int) string {
			return fmt.Sprintf("%.4f", m.Score)
		})
		logger.Infof("copypaste: Task: %s", task)
		logger.Infof("copypaste: %s", strings.Join(metrics.Names(), ","))
		logger.Infof("copypaste: %s", strings.Join(scores, ","))
	}
}

// RenderTable renders results as a table with one row per (task, metric).
func RenderTable(results *Results) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Task", "Metric", "Score"})
	for _, task := range results.Tasks() {
		metrics, _ := results.Get(task)
		for _, m := range metrics {
			t.AppendRow(table.Row{task, m.Name, fmt.Sprintf("%.3f", m.Score)})
		}
		t.AppendSeparator()
	}
	return t.Render()
}

// WriteJSON writes results to path, creating its directory if needed.
func WriteJSON(path string, results *Results) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "cannot create directory for %q", path)
	}
	encoded, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(encoded, '\n'), 0o600)
}
