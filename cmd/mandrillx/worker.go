package main

import (
	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver messages queued in the outbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := NewContainer(cfg)
		defer c.Cleanup()

		box, err := c.Outbox(ctx)
		if err != nil {
			return err
		}

		logx.Info("Starting outbox worker...")
		return box.Run(ctx)
	},
}
