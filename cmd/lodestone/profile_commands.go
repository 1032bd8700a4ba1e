package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lodestone/internal/ipc"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage launcher profiles",
	}

	profileCmd.AddCommand(newProfileCreateCommand(ctx))
	profileCmd.AddCommand(newProfileListCommand(ctx))
	profileCmd.AddCommand(newProfileRemoveCommand(ctx))

	return profileCmd
}

func newProfileCreateCommand(ctx *commandContext) *cobra.Command {
	var loader string
	var loaderVersion string
	var javaArgs string
	var width int
	var height int

	cmd := &cobra.Command{
		Use:   "create <name> <gameVersion>",
		Short: "Create a new profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProfileCreate(ipc.ProfileCreateRequest{
					Name:             args[0],
					GameVersion:      args[1],
					Loader:           loader,
					LoaderVersion:    loaderVersion,
					JavaArgs:         javaArgs,
					ResolutionWidth:  width,
					ResolutionHeight: height,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile %s created (%s)\n", resp.Profile.Name, resp.Profile.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&loader, "loader", "vanilla", "Mod loader (vanilla, fabric, forge, neoforge, quilt)")
	cmd.Flags().StringVar(&loaderVersion, "loader-version", "", "Mod loader version")
	cmd.Flags().StringVar(&javaArgs, "java-args", "", "Extra JVM arguments")
	cmd.Flags().IntVar(&width, "width", 0, "Game window width")
	cmd.Flags().IntVar(&height, "height", 0, "Game window height")
	return cmd
}

func newProfileListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProfileList()
				if err != nil {
					return err
				}
				if len(resp.Profiles) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No profiles")
					return nil
				}
				table := renderTable(profileListTable, buildProfileRows(resp.Profiles))
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newProfileRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <profileID>",
		Short: "Remove a profile and its queue history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ProfileRemove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Profile %s removed\n", args[0])
				return nil
			})
		},
	}
}
