package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lodestone/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				// The daemon reports the outcome in the message even when the
				// send itself failed.
				if resp != nil && resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				}
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				if !resp.Sent && resp.Message == "" {
					return errors.New("notification was not sent")
				}
				return nil
			})
		},
	}
}
