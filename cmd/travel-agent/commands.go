package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mustafae03/stt-tts-agent/pkg/assistant"
	"github.com/mustafae03/stt-tts-agent/pkg/stt"
	"github.com/mustafae03/stt-tts-agent/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.close()

		srv, err := web.NewServer(web.Config{
			Assistant:   a.assistant,
			Store:       a.store,
			Hub:         a.events,
			Addr:        a.cfg.Server.Addr,
			MaxUploadMB: a.cfg.Server.MaxUploadMB,
			Health:      a.chat.Health,
			Logger:      a.logger,
		})
		if err != nil {
			return err
		}
		return srv.Listen(ctx)
	},
}

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one typed question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return errors.New("empty question")
		}
		return once(cmd, func(ctx context.Context, a *app) (*assistant.Result, error) {
			return a.assistant.Turn(ctx, askSession, text, nil)
		})
	},
}

var talkCmd = &cobra.Command{
	Use:   "talk <audio-file>",
	Short: "Answer one recorded question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		clip := stt.Clip{Name: filepath.Base(args[0]), Reader: f}
		return once(cmd, func(ctx context.Context, a *app) (*assistant.Result, error) {
			return a.assistant.Respond(ctx, askSession, clip, nil)
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", ":7860", "listen address")
	for _, c := range []*cobra.Command{askCmd, talkCmd} {
		c.Flags().StringVar(&askSession, "session", "", "session id for output files")
	}
}

// once runs a single turn and prints its outcome.
func once(cmd *cobra.Command, run func(context.Context, *app) (*assistant.Result, error)) error {
	ctx := cmd.Context()
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := run(ctx, a)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res *assistant.Result) {
	if res.Skipped {
		fmt.Fprintln(w, "(nothing to answer)")
		return
	}
	if res.Transcript != "" {
		fmt.Fprintf(w, "you:       %s\n", res.Transcript)
	}
	fmt.Fprintf(w, "assistant: %s\n", res.Reply)
	if res.ImagePath != "" {
		fmt.Fprintf(w, "poster:    %s\n", res.ImagePath)
	}
	if res.AudioPath != "" {
		fmt.Fprintf(w, "audio:     %s\n", res.AudioPath)
	}
	fmt.Fprintf(w, "latency:   %s\n", res.Metrics.FormatLatency())
}
