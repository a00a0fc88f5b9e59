package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is the time between frames.
const spinnerInterval = 80 * time.Millisecond

// StartSpinner animates message on w until the returned stop function is
// called; stop clears the line and may be called more than once. Nothing
// is drawn when w is not a terminal.
func StartSpinner(w io.Writer, message string) (stop func()) {
	if !IsTerminal(w) {
		return func() {}
	}
	return startSpinner(w, message)
}

func startSpinner(w io.Writer, message string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	blank := "\r" + strings.Repeat(" ", runewidth.StringWidth(message)+2) + "\r"
	var stopOnce sync.Once

	go func() {
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-done:
				fmt.Fprint(w, blank) //nolint:errcheck
				close(cleared)
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], message) //nolint:errcheck
			}
		}
	}()
	return func() {
		stopOnce.Do(func() { close(done) })
		<-cleared
	}
}
