package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress runs fn behind a spinner on w labelled with msg. Quiet runs fn bare.
func Progress(w io.Writer, quiet bool, msg string, fn func() error) error {
	if quiet {
		return fn()
	}
	if w == nil {
		w = os.Stderr
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + msg
	s.Start()

	err := fn()
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint("✗ "+msg) + "\n"
	} else {
		s.FinalMSG = text.FgGreen.Sprint(FormatSuccess(msg)) + "\n"
	}
	s.Stop()
	return err
}
