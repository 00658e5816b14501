/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tasktrack/apiserver/config"
	"github.com/tasktrack/apiserver/internal/storage"
)

var clientDir string

// clientCmd represents the client command.
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage the hosted web client",
}

var clientPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload a built web client to the configured bucket",
	Long: `Upload every file of a built web client to object storage. The server
serves it under /app when CLIENT_BACKEND is set. Usage:

	apiserver client publish --dir ./web/dist
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.Client.Backend == "" {
			return errors.New("CLIENT_BACKEND is not set")
		}

		store, err := storage.Open(cmd.Context(), cfg.Client)
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := storage.PublishDir(cmd.Context(), store, clientDir, cfg.Client.Prefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d files to %s/%s\n", count, store.Bucket(), cfg.Client.Prefix)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientPublishCmd)
	clientPublishCmd.Flags().StringVar(&clientDir, "dir", "dist", "directory containing the built client")
}
