package main

import (
	"cmp"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/rivone/internal/client"
)

const requestTimeout = 30 * time.Second

// cliContext carries the global flags and the lazily built API client.
type cliContext struct {
	url        string
	cookie     string
	cookieName string
	tls        client.TLSFiles
	cachePath  string

	api *client.APIClient
}

func (c *cliContext) client(timeout time.Duration) (*client.APIClient, error) {
	if c.api != nil && timeout == requestTimeout {
		return c.api, nil
	}
	httpClient, err := client.NewHTTPClient(c.tls, timeout)
	if err != nil {
		return nil, err
	}
	var cookie *http.Cookie
	if c.cookie != "" {
		cookie = &http.Cookie{Name: c.cookieName, Value: c.cookie}
	}
	api := client.New(c.url, httpClient, cookie)
	if timeout == requestTimeout {
		c.api = api
	}
	return api, nil
}

func (c *cliContext) cache() *client.Cache {
	return client.NewCache(c.cachePath)
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "rivone", "catalog.json")
}

func newRootCommand() *cobra.Command {
	ctx := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "rivone",
		Short:         "Rivone catalog client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.url, "url", cmp.Or(os.Getenv("RIVONE_URL"), "http://localhost:8080"), "Server base URL")
	flags.StringVar(&ctx.cookie, "cookie", cmp.Or(os.Getenv("RIVONE_ACCESS"), "true"), "Access cookie value (true or guest)")
	flags.StringVar(&ctx.cookieName, "cookie-name", "rivon-access", "Access cookie name")
	flags.StringVar(&ctx.tls.CAFile, "ca", "", "CA certificate for a TLS server")
	flags.StringVar(&ctx.tls.CertFile, "cert", "", "Client certificate for cert auth")
	flags.StringVar(&ctx.tls.KeyFile, "key", "", "Client key for cert auth")
	flags.StringVar(&ctx.cachePath, "cache", defaultCachePath(), "Offline catalog cache file")

	rootCmd.AddCommand(
		newListCommand(ctx),
		newTrashCommand(ctx),
		newSyncCommand(ctx),
		newMoveCommand(ctx, "delete", "Move a track to the trash"),
		newMoveCommand(ctx, "restore", "Restore a track from the trash"),
		newDownloadCommand(ctx),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\n", cmp.Or(version, "N/A"))
			fmt.Fprintf(cmd.OutOrStdout(), "Build date: %s\n", cmp.Or(buildDate, "N/A"))
			return nil
		},
	}
}
