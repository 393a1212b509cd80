package main

import (
	"fmt"

	"github.com/Abraxas-365/mandrillx/pkg/notifx"
	"github.com/spf13/cobra"
)

var (
	notifyTo       []string
	notifySubject  string
	notifyText     string
	notifyHTML     string
	notifyTags     []string
	notifyTemplate string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a simple email through the configured notifx provider",
	Long: `Send a one-off email built from flags. The provider is chosen by
notify.provider (mandrill, ses or console).

Example:
  mandrillx notify --to ana@example.com --subject Hi --text "Hello" --tag test`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := NewContainer(cfg)
		defer c.Cleanup()

		client, err := c.Notifier(ctx)
		if err != nil {
			return err
		}

		opts := []notifx.Option{notifx.WithTags(notifyTags...)}
		if notifyTemplate != "" {
			opts = append(opts, notifx.WithTemplate(notifyTemplate, nil))
		}

		msgs := make([]notifx.EmailMessage, 0, len(notifyTo))
		for _, to := range notifyTo {
			msgs = append(msgs, notifx.EmailMessage{
				To:       []string{to},
				Subject:  notifySubject,
				TextBody: notifyText,
				HTMLBody: notifyHTML,
			})
		}

		results, err := client.SendBulkEmail(ctx, msgs, opts...)
		if err != nil {
			return err
		}
		printJSON(results)

		if n := failed(results); n > 0 {
			return fmt.Errorf("%d of %d messages failed", n, len(results))
		}
		return nil
	},
}

func failed(results []notifx.SendResult) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func init() {
	notifyCmd.Flags().StringSliceVar(&notifyTo, "to", nil, "recipient, repeatable; each gets its own message")
	notifyCmd.Flags().StringVar(&notifySubject, "subject", "", "subject")
	notifyCmd.Flags().StringVar(&notifyText, "text", "", "plain text body")
	notifyCmd.Flags().StringVar(&notifyHTML, "html", "", "html body")
	notifyCmd.Flags().StringSliceVar(&notifyTags, "tag", nil, "tag, repeatable")
	notifyCmd.Flags().StringVar(&notifyTemplate, "template", "", "provider-side template name")
	_ = notifyCmd.MarkFlagRequired("to")
}
