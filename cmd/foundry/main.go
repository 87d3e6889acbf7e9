package main

import (
	"fmt"
	"os"

	"github.com/foundry-mcp/foundry/cmd/foundry/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
