package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// runForm runs f, turning a user abort into apperr.ErrCancelled.
func runForm(f *huh.Form) error {
	if err := f.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return apperr.ErrCancelled
		}
		return err
	}
	return nil
}

// promptMode asks for the regulatory mode and, for UGC, whether the
// institution is a new university. def preselects the mode.
func promptMode(def rules.Mode) (rules.Mode, bool, error) {
	mode := string(def)
	if mode == "" {
		mode = string(rules.AICTE)
	}
	var newUniversity bool

	err := runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Regulatory body").
				Description("Which approval regime should the batches be scored against?").
				Options(
					huh.NewOption("AICTE (technical institutions)", string(rules.AICTE)),
					huh.NewOption("UGC (universities)", string(rules.UGC)),
				).
				Value(&mode),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("New university?").
				Description("New universities must also supply a future academic plan.").
				Value(&newUniversity).
				Affirmative("Yes").
				Negative("No"),
		).WithHideFunc(func() bool { return mode != string(rules.UGC) }),
	))
	if err != nil {
		return "", false, err
	}
	m, err := rules.ParseMode(mode)
	if err != nil {
		return "", false, err
	}
	return m, newUniversity, nil
}

// confirmSave asks before writing n results to the database at path.
func confirmSave(n int, path string) (bool, error) {
	var ok bool
	err := runForm(huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save results?").
				Description(fmt.Sprintf("Store %d scored batch(es) in %s.", n, path)).
				Value(&ok).
				Affirmative("Save").
				Negative("Skip"),
		),
	))
	return ok, err
}
