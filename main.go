package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

func main() {
	root := newRootCmd()

	err := root.ExecuteContext(shutdownContext(context.Background(), slog.Default()))
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
