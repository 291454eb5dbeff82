package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
)

// Version is set at build time via -ldflags "-X github.com/nextlevelbuilder/hookgate/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hookgate",
	Short: "hookgate — policy sidecar for AI coding assistant hooks",
	Long: "hookgate is a short-lived CLI invoked at PreToolUse and Stop " +
		"lifecycle hooks. It reads a tool call or transcript off stdin and " +
		"writes an allow/deny decision to stdout within the host's time budget.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: hookgate.json5 or $HOOKGATE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(preToolCmd())
	rootCmd.AddCommand(stopCmd())
	rootCmd.AddCommand(asyncValidateCmd())
	rootCmd.AddCommand(cacheCmd())
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hookgate %s (protocol %d)\n", Version, protocol.ProtocolVersion)
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("HOOKGATE_CONFIG"); v != "" {
		return v
	}
	return "hookgate.json5"
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
