// Command client is the command-line client for the catalog API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var (
	version   string
	buildDate string
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
