package main

import (
	"os"
	"os/signal"
	"syscall"

	"fedindex/internal/fedidxcli"
)

func main() {
	cmd := fedidxcli.NewRootCommand()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
