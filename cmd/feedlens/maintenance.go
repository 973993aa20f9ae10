package main

import (
	"github.com/spf13/cobra"

	"github.com/cognicore/feedlens/pkg/feedlens/maintenance"
)

func newMaintenanceCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Delete stored data older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.store(ctx)
			if err != nil {
				return err
			}
			if days == 0 {
				days = a.cfg.Maintenance.DaysToKeep
			}
			c := &maintenance.Cleaner{Store: st, DaysToKeep: days, Logger: a.log}
			res, err := c.Clean(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %d records older than %s\n", res.Deleted, res.Cutoff.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "days to keep (overrides maintenance.days_to_keep)")
	return cmd
}
