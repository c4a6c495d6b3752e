package notify

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// Prompter asks the user questions with huh forms.
type Prompter struct {
	// Accessible renders plain prompts, for screen readers and dumb terminals.
	Accessible bool
}

// Confirm asks a yes/no question. An aborted prompt counts as "no".
func (p Prompter) Confirm(title, affirmative string) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative(affirmative).
		Negative("Cancel").
		Value(&ok)

	if err := p.run(field); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Secret asks for a masked value. validate may be nil. An aborted prompt
// returns "".
func (p Prompter) Secret(title, description string, validate func(string) error) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Description(description).
		EchoMode(huh.EchoModePassword).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}

	if err := p.run(field); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (p Prompter) run(field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.Accessible).
		Run()
}

// Spinner shows an animated title while work runs.
type Spinner struct{}

// Run shows title until fn returns and returns fn's error.
func (Spinner) Run(ctx context.Context, title string, fn func(context.Context) error) error {
	var actionErr error
	err := spinner.New().
		Title(title).
		Context(ctx).
		Action(func() { actionErr = fn(ctx) }).
		Run()
	if actionErr != nil {
		return actionErr
	}
	return err
}
