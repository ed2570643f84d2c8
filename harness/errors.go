package harness

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAssertion matches every failed check of the assertion surface.
	ErrAssertion = errors.New("assertion failed")
	// ErrNotFound reports a button press for a button that was never rendered.
	ErrNotFound = errors.New("button not found")
	// ErrEmptyCommand reports a command line with no command token.
	ErrEmptyCommand = errors.New("command line is empty")
)

// AssertionError describes expected content missing from the capture log.
type AssertionError struct {
	// Check names the failed check, e.g. "reply exact".
	Check    string
	Expected string
	// Replies holds every captured reply text, oldest first.
	Replies []string
	// Buttons holds every captured inline button label, oldest first. It is
	// only filled for button checks.
	Buttons []string
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: nothing matched %q", e.Check, e.Expected)
	if strings.HasPrefix(e.Check, "button") {
		writeList(&b, "captured buttons", e.Buttons)
	}
	writeList(&b, "captured replies", e.Replies)
	return b.String()
}

// Unwrap lets errors.Is match ErrAssertion.
func (e *AssertionError) Unwrap() error {
	return ErrAssertion
}

// NotFoundError reports that no captured inline button matched a label.
type NotFoundError struct {
	Label string
	// Buttons holds every captured inline button label, oldest first.
	Buttons []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no button matching %q was rendered", e.Label)
	writeList(&b, "captured buttons", e.Buttons)
	return b.String()
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "\n%s: none", title)
		return
	}
	fmt.Fprintf(b, "\n%s (oldest first):", title)
	for i, item := range items {
		fmt.Fprintf(b, "\n  %d. %q", i+1, item)
	}
}
