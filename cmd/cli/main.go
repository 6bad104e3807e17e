package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/domain"
	"github.com/akeren/waitlist-api/internal/log"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "help", "-h", "--help":
		printUsage()
		return
	case "ensure-schema", "count", "export", "clear":
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	appConfig, err := config.LoadApplicationConfiguration(ctx, logger, false)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}
	defer appConfig.Cleanup()

	if err := run(ctx, appConfig, args, os.Stdout); err != nil {
		logger.Error("Command failed", "command", args[0], "error", err.Error())
		appConfig.Cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, appConfig *config.ApplicationConfig, args []string, out io.Writer) error {
	switch args[0] {
	case "ensure-schema":
		if appConfig.DocumentStore == nil {
			return fmt.Errorf("MONGO_URL is not set; the file backend has no schema")
		}
		domain.ProvisionSchemas(ctx, appConfig.DocumentStore, appConfig.Logger)
		return nil

	case "count":
		service := domain.NewWaitlistFactory(appConfig).CreateService()
		count, err := service.Count(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%d\n", count.Count)
		return err

	case "export":
		service := domain.NewWaitlistFactory(appConfig).CreateService()
		entries, err := service.List(ctx)
		if err != nil {
			return err
		}

		target := out
		if len(args) > 1 && args[1] != "-" {
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			target = f
		}

		encoder := json.NewEncoder(target)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)

	case "clear":
		if len(args) < 2 || args[1] != "--yes" {
			return fmt.Errorf("clear removes every waitlist entry; re-run with --yes to confirm")
		}
		service := domain.NewWaitlistFactory(appConfig).CreateService()
		deleted, err := service.ClearAll(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "deleted %d entries\n", deleted.Deleted)
		return err
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

func printUsage() {
	fmt.Println("Usage: cli <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ensure-schema    Create the validated MongoDB collections and indexes")
	fmt.Println("  count            Print the number of waitlist entries on the active backend")
	fmt.Println("  export [file]    Write every waitlist entry as JSON to file (default stdout)")
	fmt.Println("  clear --yes      Remove every waitlist entry")
	fmt.Println("  help             Show this help")
}
