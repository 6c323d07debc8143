package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeffersonwarrior/reqcore/internal/version"
)

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "reqcore version %s\n", version.Version())
			return nil
		},
	}
}
