package main

import (
	"fmt"
	"os"

	"github.com/yndnr/goresp/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, command.ErrorText(err))
		os.Exit(1)
	}
}
