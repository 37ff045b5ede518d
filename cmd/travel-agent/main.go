// travel-agent is a voice travel assistant: speak a question, hear the
// answer, see a poster of the destination.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "travel-agent",
	Short:         "Voice travel assistant with ticket price lookup",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.String("out", "out", "directory for posters and reply audio")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "also write logs to this file, rotated")
	pf.String("model", "gpt-4o-mini", "chat model")
	pf.String("voice", "onyx", "speech voice")
	pf.Int("max-tool-rounds", 1, "tool-call responses executed per turn")
	pf.Bool("dispatch-all", false, "run every tool call in a response, not just the first")
	pf.Bool("telemetry", false, "export traces and metrics to files")

	rootCmd.AddCommand(serveCmd, askCmd, talkCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
