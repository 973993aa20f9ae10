package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the result store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.store(ctx)
			if err != nil {
				return err
			}
			h := st.Health(ctx, time.Now())
			if err := writeJSON(cmd.OutOrStdout(), h); err != nil {
				return err
			}
			if !h.Healthy() {
				return errors.New("store is unhealthy")
			}
			return nil
		},
	}
}
