package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lodestone/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the install queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueuePostponeCommand(ctx))
	queueCmd.AddCommand(newQueueResumeCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func parseItemID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStates []string
	var listProfile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(listStates, listProfile)
				if err != nil {
					return err
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(queueListTable, buildQueueListRows(resp.Items))
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStates, "state", "s", nil, "Filter by queue state (repeatable)")
	cmd.Flags().StringVarP(&listProfile, "profile", "p", "", "Filter by profile id")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show details for a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueDescribe(id)
				if err != nil {
					return err
				}
				item := resp.Item
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:            %d\n", item.ID)
				fmt.Fprintf(out, "Name:          %s\n", item.DisplayName)
				fmt.Fprintf(out, "State:         %s\n", formatStateLabel(item.State))
				fmt.Fprintf(out, "Content type:  %s\n", formatStateLabel(item.ContentType))
				fmt.Fprintf(out, "Install order: %d\n", item.InstallOrder)
				if item.ProfileID != "" {
					fmt.Fprintf(out, "Profile:       %s\n", item.ProfileID)
				}
				fmt.Fprintf(out, "Created:       %s\n", formatDisplayTime(item.CreatedAt))
				if item.CompletedAt != nil {
					fmt.Fprintf(out, "Completed:     %s\n", formatDisplayTime(*item.CompletedAt))
				}
				if item.Error != "" {
					fmt.Fprintf(out, "Error:         %s\n", item.Error)
				}
				if item.Metadata != "" {
					fmt.Fprintf(out, "Metadata:      %s\n", item.Metadata)
				}
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <itemID>",
		Short: "Retry an errored queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRetry(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d requeued at position %d\n", resp.Item.ID, resp.Item.InstallOrder)
				return nil
			})
		},
	}
}

func newQueuePostponeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "postpone <itemID>",
		Short: "Park a pending queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.QueuePostpone(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d postponed\n", id)
				return nil
			})
		},
	}
}

func newQueueResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <itemID>",
		Short: "Return a postponed item to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueResume(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d requeued at position %d\n", resp.Item.ID, resp.Item.InstallOrder)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID>",
		Short: "Remove a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.QueueRemove(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %d removed\n", id)
				return nil
			})
		},
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <itemID>",
		Short: "Cancel the install currently in progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.QueueCancel(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested for item %d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearState string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items in bulk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClear(clearState)
				if err != nil {
					return err
				}
				label := "queue items"
				if clearState != "" {
					label = clearState + " items"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", resp.Removed, label)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&clearState, "state", "s", "", "Clear only items in this state")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				health, err := client.DatabaseHealth()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				existsKind := statusError
				if health.DatabaseExists {
					existsKind = statusOK
				}
				integrityKind := statusError
				if health.IntegrityCheck {
					integrityKind = statusOK
				}

				fmt.Fprintln(out, renderStatusLine("Database", existsKind, health.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", statusKindFromBool(health.DatabaseReadable), yesNo(health.DatabaseReadable), colorize))
				fmt.Fprintln(out, renderStatusLine("Schema version", statusInfo, health.SchemaVersion, colorize))
				fmt.Fprintln(out, renderStatusLine("Table present", statusKindFromBool(health.TableExists), yesNo(health.TableExists), colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", integrityKind, yesNo(health.IntegrityCheck), colorize))
				fmt.Fprintln(out, renderStatusLine("Total items", statusInfo, fmt.Sprintf("%d", health.TotalItems), colorize))
				if health.Error != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, health.Error, colorize))
				}
				return nil
			})
		},
	}
}
