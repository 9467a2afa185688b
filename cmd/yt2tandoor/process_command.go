package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/logging"
	"yt2tandoor/internal/notifications"
	"yt2tandoor/internal/pipeline"
	"yt2tandoor/internal/queue"
	"yt2tandoor/internal/recipe"
	"yt2tandoor/internal/stage"
	"yt2tandoor/internal/videoid"
)

type processFlags struct {
	servings       int
	noCache        bool
	force          bool
	transcriptOnly bool
	noPublish      bool
	output         string
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process <url>",
		Short: "Run the full pipeline for one video in the foreground",
		Long: "Process downloads, transcribes, extracts, and publishes one video " +
			"without requiring the daemon. Progress prints per stage.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, ctx, args[0], flags)
		},
	}

	registerProcessFlags(cmd, &flags)
	return cmd
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Process every video URL listed in a file",
		Long:  "Batch reads one URL per line; blank lines and lines starting with # are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}

			urls := make([]string, 0)
			scanner := bufio.NewScanner(bytes.NewReader(data))
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				urls = append(urls, line)
			}
			if len(urls) == 0 {
				return errors.New("batch file contains no URLs")
			}

			out := cmd.OutOrStdout()
			failures := 0
			for i, url := range urls {
				fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(urls), url)
				if err := runProcess(cmd, ctx, url, flags); err != nil {
					failures++
					fmt.Fprintf(out, "Failed: %v\n", err)
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d videos failed", failures, len(urls))
			}
			return nil
		},
	}

	registerProcessFlags(cmd, &flags)
	return cmd
}

func registerProcessFlags(cmd *cobra.Command, flags *processFlags) {
	cmd.Flags().IntVar(&flags.servings, "servings", 0, "Rescale the recipe to this many servings")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Skip the transcript cache and re-transcribe")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Publish even when a duplicate recipe exists")
	cmd.Flags().BoolVar(&flags.transcriptOnly, "transcript-only", false, "Stop after transcription and print the transcript")
	cmd.Flags().BoolVar(&flags.noPublish, "no-publish", false, "Stop after extraction and write the converted recipe JSON locally")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Destination file for --no-publish output")
}

func runProcess(cmd *cobra.Command, ctx *commandContext, rawURL string, flags processFlags) error {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return errors.New("video url is required")
	}
	if !videoid.IsVideoURL(url) {
		return fmt.Errorf("unsupported video url: %s", url)
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: "pretty",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	canonicalID, _ := videoid.Canonical(url)
	item, _, err := store.NewJob(cmd.Context(), queue.NewJobParams{
		VideoURL:         url,
		VideoID:          canonicalID,
		ServingsOverride: flags.servings,
		BypassCache:      flags.noCache,
		ForcePublish:     flags.force,
	})
	if err != nil {
		if queue.IsAlreadyQueued(err) {
			return fmt.Errorf("this video is already queued; use `yt2tandoor queue list` to inspect it")
		}
		return err
	}

	notifier := notifications.NewService(cfg)
	defs, err := pipeline.StagesFor(cfg, store, logger, notifier)
	if err != nil {
		return err
	}
	labels := make(map[string]string, len(defs))
	for _, def := range defs {
		labels[def.Name] = queue.StatusLabel(def.Processing)
	}

	stopAfter := ""
	switch {
	case flags.transcriptOnly:
		stopAfter = pipeline.StageTranscribe
	case flags.noPublish:
		stopAfter = pipeline.StageExtract
	}

	out := cmd.OutOrStdout()
	runErr := pipeline.RunItem(cmd.Context(), store, logger, notifier, defs, item, pipeline.RunOptions{
		StopAfter: stopAfter,
		Observer: func(stageName string, current *queue.Item) {
			label := labels[stageName]
			if label == "" {
				label = stageName
			}
			fmt.Fprintf(out, "==> %s\n", label)
		},
	})
	if runErr != nil {
		printProcessFailure(out, item, runErr)
		return errors.New("processing failed")
	}

	switch {
	case flags.transcriptOnly:
		return printTranscript(out, item)
	case flags.noPublish:
		return writeConvertedRecipe(out, cfg, item, flags)
	default:
		printProcessResult(out, item)
		return nil
	}
}

func printTranscript(out io.Writer, item *queue.Item) error {
	if strings.TrimSpace(item.TranscriptPath) == "" {
		return errors.New("no transcript was produced")
	}
	data, err := os.ReadFile(item.TranscriptPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	fmt.Fprintln(out, strings.TrimSpace(string(data)))
	return nil
}

func writeConvertedRecipe(out io.Writer, cfg *config.Config, item *queue.Item, flags processFlags) error {
	doc, err := stage.ParseRecipeDocument(item.RecipeData)
	if err != nil {
		return err
	}
	record := recipe.Convert(doc, recipe.ConvertOptions{
		ServingsOverride: item.ServingsOverride,
		DefaultServings:  cfg.Recipe.DefaultServings,
		ExtraUnits:       cfg.Recipe.ExtraUnits,
	})

	target := strings.TrimSpace(flags.output)
	if target == "" {
		path, err := recipe.Export(record, cfg.Paths.FallbackDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Recipe JSON written to %s\n", path)
		return nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write recipe: %w", err)
	}
	fmt.Fprintf(out, "Recipe JSON written to %s\n", target)
	return nil
}

func printProcessResult(out io.Writer, item *queue.Item) {
	if item.NeedsReview {
		fmt.Fprintf(out, "Completed with review: %s\n", item.ReviewReason)
	} else {
		fmt.Fprintln(out, "Recipe published!")
	}
	if name := strings.TrimSpace(item.RecipeName); name != "" {
		fmt.Fprintf(out, "Name: %s\n", name)
	}
	if url := strings.TrimSpace(item.RecipeURL); url != "" {
		fmt.Fprintf(out, "URL:  %s\n", url)
	}
}

func printProcessFailure(out io.Writer, item *queue.Item, err error) {
	message := strings.TrimSpace(item.ErrorMessage)
	if message == "" {
		message = err.Error()
	}
	fmt.Fprintf(out, "Failed: %s\n", message)
	if fallback := strings.TrimSpace(item.FallbackPath); fallback != "" {
		fmt.Fprintf(out, "The converted recipe was saved to %s for manual import.\n", fallback)
	}
}
