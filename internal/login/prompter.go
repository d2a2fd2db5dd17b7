package login

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// Prompter covers the interactive surfaces of the login flow so the flow
// itself can be tested without a terminal.
type Prompter interface {
	// Select presents options and returns the value of the chosen one.
	Select(title string, options []Option) (string, error)
	// Confirm asks a yes/no question.
	Confirm(title string) (bool, error)
	// SecretInput reads a non-empty string without echoing it.
	SecretInput(title string) (string, error)
}

// Option is a labeled choice for Select.
type Option struct {
	Label string
	Value string
}

type huhPrompter struct{}

// NewPrompter returns the terminal-backed Prompter used in production.
func NewPrompter() Prompter {
	return huhPrompter{}
}

func (huhPrompter) runField(field huh.Field) error {
	return huh.NewForm(huh.NewGroup(field)).WithShowHelp(false).Run()
}

func (p huhPrompter) Select(title string, options []Option) (string, error) {
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}

	var value string
	field := huh.NewSelect[string]().
		Title(title).
		Options(opts...).
		Value(&value)
	if err := p.runField(field); err != nil {
		return "", err
	}
	return value, nil
}

func (p huhPrompter) Confirm(title string) (bool, error) {
	value := true
	field := huh.NewConfirm().
		Title(title).
		Value(&value)
	if err := p.runField(field); err != nil {
		return false, err
	}
	return value, nil
}

func (p huhPrompter) SecretInput(title string) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Prompt("> ").
		Value(&value).
		EchoMode(huh.EchoModePassword).
		Validate(func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("input required")
			}
			return nil
		})
	if err := p.runField(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
