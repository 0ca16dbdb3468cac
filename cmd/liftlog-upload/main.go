package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/liftlog/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net)")
	exportDir := flag.String("path", "", "directory containing Alpha Progression exports")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_AUTH_API_KEY"), "API key, if the server requires one")
	dryRun := flag.Bool("dry-run", false, "list what would be sent without contacting the server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-upload -server <URL> -path <export dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*exportDir)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportDir)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".liftlog-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	var sender upload.Sender
	if *dryRun {
		log.Info("DRY RUN mode: files will be read but not sent")
	} else {
		sender = upload.NewClient(*serverURL, *apiKey)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(sender, state, *exportDir, *dryRun, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:       %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:    %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:     %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:     %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Workouts inserted: %d\n", stats.WorkoutsInserted)
	fmt.Printf("  Workouts skipped:  %d (already on server)\n", stats.WorkoutsSkipped)
	fmt.Printf("  Sets inserted:     %d\n", stats.SetsInserted)
	fmt.Println()
}
