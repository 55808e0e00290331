package main

import (
	"fmt"
	"os"

	"github.com/tmux/tmux-sub006/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tmuxsrv: %v\n", err)
		os.Exit(1)
	}
}
