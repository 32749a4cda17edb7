package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	envFiles []string
}

func newRootCmd(open opener) *cobra.Command {
	var global globalOptions

	cmd := &cobra.Command{
		Use:           "provider-sync",
		Short:         "Reconcile provider firms and offices with the Provider Data API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&global.envFiles, "env-file", []string{".env", ".env.local"}, "env files to load before reading configuration")

	cmd.AddCommand(newRunCmd(&global, open))
	cmd.AddCommand(newPlanCmd(&global, open))
	cmd.AddCommand(newMigrateCmd(&global, open))
	return cmd
}

func Execute() {
	if err := newRootCmd(openRuntime).Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
