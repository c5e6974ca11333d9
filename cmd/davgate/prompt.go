package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// errCancelled stops a command quietly after the user backs out of a prompt.
var errCancelled = errors.New("cancelled")

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return errCancelled
	}
	return err
}

func required(what string) func(string) error {
	return func(input string) error {
		if input == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func promptText(label, def string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{Label: label, Default: def, Validate: validate}
	v, err := p.Run()
	if err != nil {
		return "", handlePromptError(err)
	}
	return v, nil
}

func promptSecret(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*', Validate: required(label)}
	v, err := p.Run()
	if err != nil {
		return "", handlePromptError(err)
	}
	return v, nil
}
