package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/medkb-labs/icdassist/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [json-dir]",
	Short: "Watch a directory and index new entity files incrementally",
	Long: `Watches the given directory (or the configured json_dir) for new or
modified .json entity files. Each file is ingested and its chunks embedded
into the index as it appears. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureIngest(); err != nil {
		return err
	}
	if err := ensureIndexService(ctx); err != nil {
		return err
	}
	cfg, err := config()
	if err != nil {
		return err
	}

	jsonDir := cfg.Paths.JSONDir
	if len(args) == 1 {
		jsonDir = args[0]
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(jsonDir); err != nil {
		return err
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", jsonDir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			// Editors often write via a temp file and rename, so Create
			// and Write are handled the same way.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				handleWatchedFile(ctx, cmd, event.Name, cfg.Paths.TextDir)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-ctx.Done():
			cmd.Println("Stopping watcher.")
			return nil
		}
	}
}

func handleWatchedFile(ctx context.Context, cmd *cobra.Command, path, textDir string) {
	rec, err := ingestService.IngestFile(ctx, path, textDir)
	if err != nil {
		logger.Warn("Failed to ingest %s: %v", filepath.Base(path), err)
		return
	}
	if rec == nil {
		logger.Debug("Skipped %s: no definition", filepath.Base(path))
		return
	}

	if err := indexService.IndexRecord(ctx, rec.Code); err != nil {
		logger.Warn("Failed to index %s: %v", rec.Code, err)
		return
	}
	cmd.Printf("Indexed %s (%s)\n", rec.Code, rec.Title)
}
