package main

import (
	"github.com/Abraxas-365/mandrillx/pkg/config"
	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mandrillx",
	Short: "Send email through Mandrill and receive its webhooks",
	Long: `mandrillx sends transactional email through the Mandrill API.

Example:
  mandrillx send -f welcome.yaml         # Send one message now
  mandrillx enqueue -f welcome.yaml      # Queue it for the outbox worker
  mandrillx worker                       # Deliver queued messages
  mandrillx webhook                      # Serve the Mandrill webhook endpoint
  mandrillx ping                         # Check the API key
  mandrillx notify --to a@example.com    # Send a quick email`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		logCfg := cfg.Log.Logger()
		if debug {
			logCfg.Level = logx.LevelDebug
		}
		logx.SetDefaultLogger(logx.NewLogger(logCfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(notifyCmd)
}
