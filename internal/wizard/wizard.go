// Package wizard holds the interactive prompts of the CLI.
package wizard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/tunelab/tunestore/internal/models"
	"golang.org/x/term"
)

// ErrNothingToPick is returned when there are no experiments to choose from.
var ErrNothingToPick = errors.New("no experiments to choose from")

// Label is the picker line for one experiment.
func Label(exp *models.Experiment) string {
	created := "unknown date"
	if t, ok := exp.CreationTime(); ok {
		created = t.UTC().Format("2006-01-02 15:04")
	}
	rows := 0
	if exp.Results != nil {
		rows = exp.Results.Len()
	}
	mode := "?"
	if m, err := exp.MetricMode(); err == nil {
		mode = string(m)
	}
	return fmt.Sprintf("%s  (%s, %s, %d evaluations)", exp.Name, created, mode, rows)
}

// Options builds the select options, keyed by experiment name, in the
// order given.
func Options(exps []*models.Experiment) []huh.Option[string] {
	opts := make([]huh.Option[string], len(exps))
	for i, e := range exps {
		opts[i] = huh.NewOption(Label(e), e.Name)
	}
	return opts
}

// PickExperiment asks the user to choose one of exps and returns its name.
// A single candidate is returned without prompting.
func PickExperiment(in io.Reader, out io.Writer, exps []*models.Experiment) (string, error) {
	switch len(exps) {
	case 0:
		return "", ErrNothingToPick
	case 1:
		return exps[0].Name, nil
	}

	name := exps[0].Name
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Experiment").
				Description("Most recent first").
				Options(Options(exps)...).
				Value(&name),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("picking experiment: %w", err)
	}
	return name, nil
}
