package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lodestone/internal/ipc"
)

func newInstallCommand(ctx *commandContext) *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Queue installs for a profile",
	}

	installCmd.AddCommand(newInstallClientCommand(ctx))
	for _, contentType := range []string{"mod", "modpack", "resourcepack", "shader"} {
		installCmd.AddCommand(newInstallContentCommand(ctx, contentType))
	}

	return installCmd
}

func newInstallClientCommand(ctx *commandContext) *cobra.Command {
	var loader string
	var loaderVersion string

	cmd := &cobra.Command{
		Use:   "client <profileID> <gameVersion>",
		Short: "Queue a game client install",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.InstallClient(ipc.InstallClientRequest{
					ProfileID:     args[0],
					GameVersion:   args[1],
					Loader:        loader,
					LoaderVersion: loaderVersion,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as item %d (position %d)\n",
					resp.Item.DisplayName, resp.Item.ID, resp.Item.InstallOrder)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&loader, "loader", "vanilla", "Mod loader (vanilla, fabric, forge, neoforge, quilt)")
	cmd.Flags().StringVar(&loaderVersion, "loader-version", "", "Mod loader version")
	return cmd
}

func newInstallContentCommand(ctx *commandContext, contentType string) *cobra.Command {
	var source string
	var versionID string
	var sha512 string
	var name string

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <profileID> <projectID>...", contentType),
		Short: fmt.Sprintf("Queue %s installs", contentType),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectIDs := args[1:]
			if len(projectIDs) > 1 && (versionID != "" || sha512 != "" || name != "") {
				return fmt.Errorf("--version, --sha512, and --name apply to a single project only")
			}

			refs := make([]ipc.ContentRef, 0, len(projectIDs))
			for _, projectID := range projectIDs {
				refs = append(refs, ipc.ContentRef{
					Source:      source,
					ProjectID:   projectID,
					VersionID:   versionID,
					SHA512:      sha512,
					DisplayName: name,
				})
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.InstallContent(ipc.InstallContentRequest{
					ProfileID:   args[0],
					ContentType: contentType,
					Refs:        refs,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, item := range resp.Items {
					fmt.Fprintf(out, "Queued %s as item %d (position %d)\n", item.DisplayName, item.ID, item.InstallOrder)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "modrinth", "Content source")
	cmd.Flags().StringVar(&versionID, "version", "", "Pinned version id")
	cmd.Flags().StringVar(&sha512, "sha512", "", "Expected artifact checksum")
	cmd.Flags().StringVar(&name, "name", "", "Display name override")
	return cmd
}
