package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-todo-client/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorMessage(err))
	}

	stop()
	os.Exit(cli.ExitCode(err))
}
