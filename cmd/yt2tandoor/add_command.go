package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yt2tandoor/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var servings int
	var noCache bool
	var force bool

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Submit a video URL to the daemon queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if url == "" {
				return errors.New("video url is required")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(ipc.SubmitRequest{
					URL:      url,
					Servings: servings,
					NoCache:  noCache,
					Force:    force,
				})
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing submit response")
				}
				if strings.TrimSpace(resp.Message) != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				}
				if resp.ID > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Item ID: %d\n", resp.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&servings, "servings", 0, "Rescale the recipe to this many servings")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the transcript cache and re-transcribe")
	cmd.Flags().BoolVar(&force, "force", false, "Publish even when a duplicate recipe exists")
	return cmd
}
