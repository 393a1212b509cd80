package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/spf13/cobra"
)

var (
	messagePath  string
	enqueueDelay time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message now",
	Long: `Send the message described by a YAML file and print Mandrill's
per-recipient response.

Example file:
  from: "Acme <noreply@acme.test>"
  to: ["Ana <ana@example.com>"]
  subject: Welcome
  body: "<p>Hi *|NAME|*</p>"
  content_subtype: html
  attach: [terms.pdf]
  options:
    tags: [welcome]
    merge_vars:
      ana@example.com: {NAME: Ana}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := NewContainer(cfg)
		defer c.Cleanup()

		msg, err := loadMessage(ctx, messagePath, c.Files)
		if err != nil {
			return err
		}
		applyFrom(msg, cfg.Mandrill.FromAddress)

		client, err := c.Mandrill()
		if err != nil {
			return err
		}

		sent, err := client.Send(ctx, msg)
		if msg.Response != nil {
			printJSON(msg.Response)
		}
		if err != nil {
			if sc := mandrillx.ErrorContext(err); sc.Payload != nil {
				fmt.Fprintf(os.Stderr, "payload sent to %s\n", sc.Payload.Endpoint())
			}
			return err
		}
		if !sent {
			return fmt.Errorf("message was not sent")
		}
		return nil
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue a message for the outbox worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := NewContainer(cfg)
		defer c.Cleanup()

		msg, err := loadMessage(ctx, messagePath, c.Files)
		if err != nil {
			return err
		}
		applyFrom(msg, cfg.Mandrill.FromAddress)

		box, err := c.Outbox(ctx)
		if err != nil {
			return err
		}

		var id string
		if enqueueDelay > 0 {
			id, err = box.EnqueueDelayed(ctx, msg, enqueueDelay)
		} else {
			id, err = box.Enqueue(ctx, msg)
		}
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVarP(&messagePath, "file", "f", "", "message YAML file")
	_ = sendCmd.MarkFlagRequired("file")

	enqueueCmd.Flags().StringVarP(&messagePath, "file", "f", "", "message YAML file")
	enqueueCmd.Flags().DurationVar(&enqueueDelay, "delay", 0, "deliver no earlier than this from now")
	_ = enqueueCmd.MarkFlagRequired("file")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
