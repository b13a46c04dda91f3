package main

import (
	"os"

	"github.com/tracelab/entiq/cmd/entiq"
)

func main() {
	if err := entiq.Execute(); err != nil {
		os.Exit(1)
	}
}
