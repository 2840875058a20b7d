package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"dirdupe/internal/cmd"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := fang.Execute(context.Background(), cmd.NewRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
