package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/verbdeck/internal/cli"
	"codeberg.org/snonux/verbdeck/internal/models"
	"codeberg.org/snonux/verbdeck/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	var logger *logrus.Logger

	// Config and logging are set up after flag parsing so both can see the flags
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(flags.CfgFile); err != nil {
			return err
		}
		cli.ApplyConfig(flags)

		var err error
		logger, err = cli.NewLogger(flags.LogLevel, flags.LogFormat, os.Stderr)
		if err != nil {
			return err
		}
		if used := cli.ConfigFileUsed(); used != "" {
			logger.WithField("file", used).Debug("Using config file")
		}
		return nil
	}

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context(), args, flags, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, args []string, flags *cli.Flags, logger *logrus.Logger) error {
	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey())
		return lister.ListAvailableModels(ctx, os.Stdout)
	}

	proc, err := processor.NewDefault(ctx, flags, logger)
	if err != nil {
		return err
	}

	summary, err := proc.Run(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Anki package created: %s (%d notes, %d media files)\n",
		summary.OutputPath, summary.Notes, summary.MediaFiles)
	if summary.CSVPath != "" {
		fmt.Printf("CSV written: %s\n", summary.CSVPath)
	}
	return nil
}
