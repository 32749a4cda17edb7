package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCmd(global *globalOptions, open opener) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx, global.envFiles, overrides{})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

			if !status {
				if err := rt.Migrate(ctx); err != nil {
					return withCode(exitFatal, err)
				}
			}
			statuses, err := rt.MigrationStatus(ctx)
			if err != nil {
				return withCode(exitFatal, err)
			}
			for _, st := range statuses {
				if err := writeJSONLine(cmd.OutOrStdout(), st); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "only report migration status")
	return cmd
}
