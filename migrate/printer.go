// Package migrate renders a snapshot.Migration for a human, the same
// colorized step-by-step trace internal/executor/executor.go prints
// while applying a plan (color.New(color.FgX).Fprintf(...) per step),
// adapted from "currently executing a step" to "here is the plan".
package migrate

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ormlite/ormlite/snapshot"
)

// Printer renders migrations to an io.Writer, typically os.Stderr.
type Printer struct {
	Out io.Writer
}

// NewPrinter returns a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{Out: out}
}

// Plan prints every statement in m with its description, without
// applying anything. Statements whose SQL is an "-- unsupported" comment
// print in yellow so they stand out from the rest; snapshot.Prepare
// itself reports unsupported changes as errors, not as such statements.
func (p *Printer) Plan(m snapshot.Migration) {
	if !m.HasChanges {
		_, _ = color.New(color.FgGreen).Fprintf(p.Out, "No changes: %s is already up to date\n", m.Name)
		return
	}

	_, _ = color.New(color.FgCyan).Fprintf(p.Out, "Migration %s (%s)\n", m.Name, m.ID)
	for i, stmt := range m.Statements {
		if isUnsupported(stmt.SQL) {
			_, _ = color.New(color.FgYellow).Fprintf(p.Out, "  [%d/%d] %s\n", i+1, len(m.Statements), stmt.Description)
			_, _ = color.New(color.FgYellow).Fprintf(p.Out, "      %s\n", stmt.SQL)
			continue
		}
		_, _ = color.New(color.FgCyan).Fprintf(p.Out, "  [%d/%d] %s\n", i+1, len(m.Statements), stmt.Description)
		_, _ = fmt.Fprintf(p.Out, "      %s\n", stmt.SQL)
	}
}

// Applied prints a confirmation after ApplyMigration succeeds.
func (p *Printer) Applied(m snapshot.Migration) {
	_, _ = color.New(color.FgGreen).Fprintf(p.Out, "Applied %s: %d statement(s)\n", m.Name, len(m.Statements))
}

func isUnsupported(sql string) bool {
	return len(sql) >= 14 && sql[:14] == "-- unsupported"
}
