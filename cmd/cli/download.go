package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/reduce-go/internal/app"
	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/internal/infrastructure"
)

var wgetCmd = &cobra.Command{
	Use:                "wget [wget arguments...]",
	Short:              "Run wget unless the file was downloaded before",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, "wget", args)
	},
}

var curlCmd = &cobra.Command{
	Use:                "curl [curl arguments...]",
	Short:              "Run curl unless the file was downloaded before",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, "curl", args)
	},
}

func runDownload(cmd *cobra.Command, tool string, args []string) error {
	ensureServer()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flow := app.NewDownloadFlow(
		infrastructure.NewFingerprintEngine(&cfg.Fingerprint, log),
		newClient(),
		infrastructure.NewExecRunner(cfg.Logging.LogsDir, log),
		infrastructure.NewMetadataTagger(),
		infrastructure.NewNotificationService(&cfg.Notification, log),
		infrastructure.CollectDeviceInfo,
		log,
	)

	outcome, err := flow.Run(ctx, tool, args)
	if err != nil {
		return err
	}

	switch outcome.Action {
	case domain.ActionProceed:
		fmt.Printf("Downloaded %s\n", outcome.OutputPath)
	case domain.ActionPause:
		fmt.Printf("Skipped %s: already downloaded\n", outcome.URL)
	default:
		fmt.Printf("Cancelled %s: no decision from server\n", outcome.URL)
	}
	return nil
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [url]",
	Short: "Compute the partial-content fingerprint of a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := infrastructure.NewFingerprintEngine(&cfg.Fingerprint, log)
		hash, caps := engine.Fingerprint(cmd.Context(), args[0], nil)

		fmt.Printf("Range requests: %v\n", caps.RangeSupported)
		fmt.Printf("Streaming:      %v\n", caps.StreamingSupported)
		if hash == "" {
			fmt.Println("Fingerprint:    unavailable")
			return nil
		}
		fmt.Printf("Fingerprint:    %s\n", hash)
		return nil
	},
}

var showMetaCmd = &cobra.Command{
	Use:   "show-meta [file]",
	Short: "Show the fingerprint stored on a downloaded file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, ok, err := infrastructure.NewMetadataTagger().Read(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("%s has no %s metadata\n", args[0], infrastructure.MetadataAttributeName)
			return nil
		}
		fmt.Printf("%s: %s\n", infrastructure.MetadataAttributeName, hash)
		return nil
	},
}
