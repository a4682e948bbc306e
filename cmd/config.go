package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// redacted replaces secrets in the printed configuration.
const redacted = "********"

func configCommands(app *flqueryInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "config outputs your instances computed configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *app.cnf
			if cfg.Server.SecretKey != "" {
				cfg.Server.SecretKey = redacted
			}
			if cfg.Notification.Slack.WebhookUrl != "" {
				cfg.Notification.Slack.WebhookUrl = redacted
			}

			data, err := json.MarshalIndent(cfg, "", "    ")
			if err != nil {
				return fmt.Errorf("error printing config: %v", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
