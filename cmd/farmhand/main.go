package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuongbtq/farmhand/cmd/farmhand/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "farmhand: %v\n", err)
		stop()
		os.Exit(1)
	}
}
