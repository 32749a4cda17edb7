package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
)

func newRunCmd(global *globalOptions, open opener) *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation and print the result as a JSON line",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := open(ctx, global.envFiles, o)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

			res, err := rt.Trigger(ctx)
			if res == nil && err != nil {
				res = syncresult.Failed(err.Error())
			}
			if werr := writeJSONLine(cmd.OutOrStdout(), res); werr != nil {
				return werr
			}
			switch {
			case err != nil:
				return withCode(exitFatal, err)
			case res.HasErrors():
				return withCode(exitEntityErrors, errEntityErrors)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&o.file, "file", "", "read the snapshot from a local JSON file instead of the registry")
	cmd.Flags().BoolVar(&o.applyDeactivations, "apply-deactivations", false, "disable firms and offices missing from the snapshot")
	return cmd
}
