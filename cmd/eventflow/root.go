package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eventflow/eventflow/pkg/commands"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "eventflow",
		Short:         "EventFlow maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(commands.DefaultCommands()...)
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
