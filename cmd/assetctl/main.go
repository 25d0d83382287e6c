package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"assetgate/pkg/client"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ASSETCTL")
	v.AutomaticEnv()

	newClient := func() *client.Client {
		return client.New(v.GetString("url"), v.GetString("token"))
	}

	rootCmd := &cobra.Command{
		Use:          "assetctl",
		Short:        "Command line client for the asset gateway",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "gateway base URL")
	rootCmd.PersistentFlags().String("token", "", "bearer token used for uploads")
	_ = v.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	_ = v.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	putCmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Upload a file as an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			location, err := newClient().Put(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}

	var output string
	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Download an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := output
			if target == "" {
				target = args[0]
			}

			f, err := os.Create(target)
			if err != nil {
				return err
			}

			n, err := newClient().Get(cmd.Context(), args[0], f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(target)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", target, n)
			return nil
		},
	}
	getCmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of the asset name")

	lsCmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored assets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := newClient().List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info <name>...",
		Short: "Show size and modification time of assets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := lookup(cmd.Context(), newClient(), args)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tLAST MODIFIED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Size, info.LastModified)
			}
			return tw.Flush()
		},
	}

	rootCmd.AddCommand(putCmd, getCmd, lsCmd, infoCmd)
	return rootCmd
}

// lookup uses the single-asset endpoint for one name so that a missing
// asset is reported, and the batch endpoint otherwise.
func lookup(ctx context.Context, c *client.Client, names []string) ([]client.AssetInfo, error) {
	if len(names) == 1 {
		info, err := c.Info(ctx, names[0])
		if err != nil {
			return nil, err
		}
		return []client.AssetInfo{info}, nil
	}
	return c.BatchInfo(ctx, names)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
