// Command wellspring generates deduplicated batches of inspirational content
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/wellspring/internal/cli"
	"github.com/ppiankov/wellspring/internal/model"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps fatal error kinds to distinct exit statuses
func exitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return 2
	case errors.Is(err, model.ErrAuth):
		return 3
	case errors.Is(err, model.ErrConfig):
		return 4
	case errors.Is(err, model.ErrPersistence):
		return 5
	default:
		return 1
	}
}
