package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/reduce-go/internal/app"
	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/internal/infrastructure"
	"github.com/yourusername/reduce-go/pkg/logger"
)

var (
	serverURL   string
	configPath  string
	noAutoStart bool
	verbose     bool

	cfg = domain.DefaultConfig()
	log = zap.NewNop()

	rootCmd = &cobra.Command{
		Use:   "reduce",
		Short: "reduce - skip downloads you already have",
		Long: `reduce fingerprints remote files before downloading them and asks the
local decision server whether the same file was downloaded before.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (defaults to client.server_url)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(wgetCmd)
	rootCmd.AddCommand(curlCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(showMetaCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(deviceInfoCmd)
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringP("date", "d", "", "Day to show (YYYY-MM-DD, default today)")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries")
	historyCmd.Flags().Bool("errors", false, "Show the error log instead")
	historyCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	historyCmd.Flags().BoolP("follow", "f", false, "Stream decisions as they are made")
}

// setup loads configuration and the CLI logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if serverURL == "" {
		serverURL = cfg.Client.ServerURL
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err = logger.New(logger.Config{
		Level:      level,
		Format:     "console",
		OutputPath: "stderr",
		Component:  "cli",
	})
	return err
}

func newClient() *infrastructure.DecisionClient {
	return infrastructure.NewDecisionClient(serverURL, cfg.Client.RequestTimeout, log)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart || !cfg.Client.AutoStartServer {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		records, err := newClient().ListDownloads(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILENAME\tSIZE\tSTATUS\tDEVICE\tURL\tINSERTED")
		for _, r := range records {
			size := "-"
			if r.ContentLength != nil {
				size = humanize.IBytes(uint64(*r.ContentLength))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(r.Filename, 32),
				size,
				r.Status,
				r.DeviceName,
				truncate(r.URL, 48),
				humanize.Time(r.InsertedAt))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many downloads were completed and how many were skipped",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		client := newClient()

		completed, err := client.Stats(cmd.Context(), domain.StatusCompleted)
		if err != nil {
			return err
		}
		cancelled, err := client.Stats(cmd.Context(), domain.StatusCancelled)
		if err != nil {
			return err
		}

		fmt.Println("Download Statistics:")
		fmt.Printf("  Completed:  %s (%s)\n",
			humanize.Comma(completed.Count), humanize.IBytes(uint64(completed.TotalContentLength)))
		fmt.Printf("  Duplicates: %s (%s saved)\n",
			humanize.Comma(cancelled.Count), humanize.IBytes(uint64(cancelled.TotalContentLength)))
		return nil
	},
}

var deviceInfoCmd = &cobra.Command{
	Use:   "device-info",
	Short: "Show device information for this machine and the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		local := infrastructure.CollectDeviceInfo()
		printDevice("Local", local)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Client.RequestTimeout)
		defer cancel()

		remote, err := newClient().DeviceInfo(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server: unavailable (%v)\n", err)
			return nil
		}
		printDevice("Server", remote)
		return nil
	},
}

func printDevice(label string, info domain.DeviceInfo) {
	fmt.Printf("%s:\n", label)
	fmt.Printf("  Device ID:   %s\n", info.DeviceID)
	fmt.Printf("  Device name: %s\n", info.DeviceName)
	fmt.Printf("  User:        %s\n", info.CurrentUser)
	fmt.Printf("  MAC address: %s\n", info.MACAddress)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the server's recent decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		showErrors, _ := cmd.Flags().GetBool("errors")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if follow, _ := cmd.Flags().GetBool("follow"); follow {
			return followDecisions(cmd, jsonOutput)
		}

		category := logger.CategoryDecision
		if showErrors {
			category = logger.CategoryError
		}

		entries, err := newClient().Logs(cmd.Context(), category, date, limit)
		if err != nil {
			return err
		}

		if jsonOutput {
			out, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tMESSAGE\tFILENAME\tDUPLICATE\tTIER")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%v\n",
				formatTimestamp(e.Timestamp),
				e.Message,
				fieldOr(e.Fields, "filename"),
				fieldOr(e.Fields, "duplicate"),
				fieldOr(e.Fields, "tier"))
		}
		return w.Flush()
	},
}

func followDecisions(cmd *cobra.Command, jsonOutput bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "Waiting for decisions (Ctrl+C to stop)...")
	return newClient().FollowDecisions(ctx, func(event domain.DecisionEvent) {
		if jsonOutput {
			out, _ := json.Marshal(event)
			fmt.Println(string(out))
			return
		}
		fmt.Printf("%s  %-7s %-10s %s\n",
			event.Time.Local().Format("15:04:05"),
			event.Action,
			event.Tier,
			event.Filename)
	})
}

func formatTimestamp(ts string) string {
	t, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04:05")
}

func fieldOr(fields map[string]interface{}, key string) interface{} {
	if v, ok := fields[key]; ok {
		return v
	}
	return "-"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
