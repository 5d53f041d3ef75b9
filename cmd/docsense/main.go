// Command docsense classifies document images, extracts their fields and
// decides whether they can be accepted automatically.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joseph-ayodele/docsense/internal/common"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes bad input from environment failures for scripts.
func exitCode(err error) int {
	switch {
	case errors.Is(err, common.ErrIngestion), errors.Is(err, common.ErrExtraction):
		return 2
	case errors.Is(err, common.ErrModelUnavailable), errors.Is(err, common.ErrConfig):
		return 3
	default:
		return 1
	}
}
