package cli

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"covflow/internal/workflow"
)

// haltedState marks projects fail_fast never started.
const haltedState = "Halted"

// SummaryTable builds the projects by backends table for run. The header is
// the first row.
func SummaryTable(run *workflow.RunResult) pterm.TableData {
	backends := append(append([]string{}, run.Backends...), run.Skipped...)

	header := []string{"Project", "State", "Failed stage", "Error"}
	header = append(header, backends...)
	data := pterm.TableData{header}

	for _, o := range run.Outcomes {
		row := []string{o.Project, string(o.State), string(o.FailedStage), o.ErrorKind()}
		if o.FailedBackend != "" {
			row[2] += " (" + o.FailedBackend + ")"
		}
		for _, name := range backends {
			cell := "-"
			if b, ok := o.Backend(name); ok {
				cell = string(b.Status)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}
	for _, name := range run.Halted {
		row := []string{name, haltedState, "", ""}
		for range backends {
			row = append(row, "-")
		}
		data = append(data, row)
	}
	return data
}

// RenderSummary prints the summary table and a final status line to w.
func RenderSummary(w io.Writer, run *workflow.RunResult) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithData(SummaryTable(run)).Srender()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}

	if run.Succeeded() {
		_, err = fmt.Fprint(w, pterm.Success.Sprintfln("%d project(s) finished, report kinds: %s",
			len(run.Outcomes), run.Request.String()))
		return err
	}
	_, err = fmt.Fprint(w, pterm.Error.Sprintfln("%d of %d project(s) failed",
		len(run.Failures())+len(run.Halted), len(run.Outcomes)+len(run.Halted)))
	return err
}
