package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/rivone/internal/models"
)

func newListCommand(ctx *cliContext) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := ctx.cache()
			if offline {
				if err := cache.Load(); err != nil {
					return fmt.Errorf("load cache: %w", err)
				}
				if cache.FetchedAt.IsZero() {
					fmt.Fprintln(cmd.OutOrStdout(), "No cached catalog")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cached at %s\n", cache.FetchedAt.Format(time.RFC3339))
				fmt.Fprintln(cmd.OutOrStdout(), renderTracks(cache.Tracks))
				return nil
			}

			api, err := ctx.client(requestTimeout)
			if err != nil {
				return err
			}
			tracks, err := api.List(cmd.Context())
			if err != nil {
				return err
			}
			if err := cache.Store(tracks, time.Now().UTC()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache not updated: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTracks(tracks))
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Show the last fetched catalog without contacting the server")
	return cmd
}

func newTrashCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List deleted tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.client(requestTimeout)
			if err != nil {
				return err
			}
			tracks, err := api.ListDeleted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTracks(tracks))
			return nil
		},
	}
}

func newSyncCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull new tracks from the channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.client(requestTimeout)
			if err != nil {
				return err
			}
			res, err := api.Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d, total %d\n", res.Added, res.Total)
			return nil
		},
	}
}

// newMoveCommand builds delete or restore.
func newMoveCommand(ctx *cliContext, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.client(requestTimeout)
			if err != nil {
				return err
			}
			id := args[0]
			if name == "delete" {
				err = api.Delete(cmd.Context(), id)
			} else {
				err = api.Restore(cmd.Context(), id)
			}
			if err != nil {
				return err
			}

			if name == "delete" {
				cache := ctx.cache()
				if cache.Load() == nil && cache.Remove(id) {
					_ = cache.Store(cache.Tracks, cache.FetchedAt)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Track %s moved to trash\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Track %s restored\n", id)
			return nil
		},
	}
}

func newDownloadCommand(ctx *cliContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <fileId>",
		Short: "Download a track through the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.client(0)
			if err != nil {
				return err
			}
			fileID := args[0]

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				if output == "" {
					output = fileID + ".mp3"
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := api.Download(cmd.Context(), fileID, w)
			if err != nil {
				if output != "-" {
					_ = os.Remove(output)
				}
				return err
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s (%d bytes)\n", output, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <fileId>.mp3, - for stdout)")
	return cmd
}

func renderTracks(tracks []models.Track) string {
	if len(tracks) == 0 {
		return "No tracks"
	}
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{t.ID, t.Title, t.Artist, t.FileID})
	}
	return renderTable([]string{"ID", "Title", "Artist", "File ID"}, rows)
}
