package cmd

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// startSpinner shows a spinner on stdout while slow work runs. The returned
// function stops it; it does nothing when stdout is not a terminal.
func startSpinner(message string) func() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stdout
	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")
	s.Start()

	return s.Stop
}
