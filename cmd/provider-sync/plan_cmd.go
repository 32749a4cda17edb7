package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newPlanCmd(global *globalOptions, open opener) *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview what a run would change, without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx, global.envFiles, o)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

			preview, err := rt.Preview(ctx)
			if err != nil {
				return withCode(exitFatal, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), preview)
		},
	}
	cmd.Flags().StringVar(&o.file, "file", "", "read the snapshot from a local JSON file instead of the registry")
	return cmd
}
