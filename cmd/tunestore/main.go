package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Command produced results
	ExitNoResults = 1 // Nothing usable matched the request
	ExitError     = 2 // Configuration or runtime error
)

// NoResultsError indicates that the command ran successfully but found
// nothing usable to report.
type NoResultsError struct {
	Message string
}

func (e *NoResultsError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var noResults *NoResultsError
		if errors.As(err, &noResults) {
			os.Exit(ExitNoResults)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
