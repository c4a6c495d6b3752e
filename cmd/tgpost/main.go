// Package main is the entry point for the tgpost CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgpost/internal/gateway"
	"github.com/flemzord/tgpost/internal/metrics"
	"github.com/flemzord/tgpost/internal/notify"
	"github.com/flemzord/tgpost/internal/poster"
	"github.com/flemzord/tgpost/internal/secret"
	"github.com/flemzord/tgpost/internal/security"
	"github.com/flemzord/tgpost/internal/selection"
	"github.com/flemzord/tgpost/internal/telegram"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			notify.NewConsole(os.Stderr).Error("Error: " + err.Error())
		}
		os.Exit(1)
	}
}

// reportedError marks an error the user has already been told about.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tgpost",
		Short:         "Send code selections to a Telegram chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().String("env-file", ".env", "Environment file loaded before the configuration")
	root.AddCommand(versionCmd(), sendCmd(), tokenCmd(), configCmd(), serveCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tgpost %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func sendCmd() *cobra.Command {
	var (
		lines     string
		language  string
		chatID    string
		parseMode string
	)
	cmd := &cobra.Command{
		Use:   "send [file]",
		Short: "Send a file, a line range or stdin to Telegram",
		Long: "Send a file, a line range of it, or stdin (no file or \"-\") to the configured chat.\n" +
			"Long selections are split into several messages sent in order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, func(o *overrides) {
				o.chatID = chatID
				o.parseMode = parseMode
			})
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.interactivePoster(cmd.Context())
			if err != nil {
				return err
			}

			src := selection.Source{Lines: lines, Language: language, Stdin: cmd.InOrStdin()}
			if len(args) == 1 {
				src.Path = args[0]
			}
			_, err = p.SendSelection(cmd.Context(), src)
			return reported(err)
		},
	}
	cmd.Flags().StringVarP(&lines, "lines", "l", "", "Line range to send: N or N-M (1-based, inclusive)")
	cmd.Flags().StringVar(&language, "language", "", "Language id for the code fence (default: from the file extension)")
	cmd.Flags().StringVar(&chatID, "chat-id", "", "Destination chat id or @channel (overrides chat_id)")
	cmd.Flags().StringVar(&parseMode, "parse-mode", "", "None, MarkdownV2, Markdown or HTML (overrides parse_mode)")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the Telegram bot token",
	}

	var fromStdin bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Prompt for the bot token and store it securely",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.interactivePoster(cmd.Context())
			if err != nil {
				return err
			}
			if fromStdin {
				token, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				return reported(p.StoreBotToken(cmd.Context(), token))
			}
			return reported(p.SetBotToken(cmd.Context()))
		},
	}
	set.Flags().BoolVar(&fromStdin, "stdin", false, "Read the token from stdin instead of prompting")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored bot token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.interactivePoster(cmd.Context())
			if err != nil {
				return err
			}
			return reported(p.ClearBotToken(cmd.Context()))
		},
	}

	cmd.AddCommand(set, clearCmd)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	var ping bool
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%s)\n", a.source())
			if strings.TrimSpace(a.cfg.ChatID) == "" {
				fmt.Fprintln(out, "  warning: chat_id is empty, sends will be refused")
			}
			if !ping {
				return nil
			}

			store, err := a.Secrets(cmd.Context())
			if err != nil {
				return err
			}
			token, err := store.Get(cmd.Context(), secret.BotTokenKey)
			if errors.Is(err, secret.ErrNotFound) {
				return poster.ErrMissingCredential
			}
			if err != nil {
				return err
			}
			client := telegram.NewClient(token, a.cfg.APIURL, a.cfg.RequestTimeout)
			me, err := client.GetMe(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Bot OK: @%s (id %d)\n", me.Username, me.ID)
			return nil
		},
	}
	check.Flags().BoolVar(&ping, "ping", false, "Also verify the bot token with getMe")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := redactedYAML(a.cfg, a.redactor)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.AddCommand(check, show)
	return cmd
}

func serveCmd() *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /send, /health and /metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, func(o *overrides) { o.bind = bind })
			if err != nil {
				return err
			}
			defer a.Close()

			collector := metrics.New()
			p, err := a.poster(cmd.Context(), poster.Deps{
				Notifier: notify.NewLog(a.logger),
				Metrics:  collector,
			})
			if err != nil {
				return err
			}
			a.redactor.AddLiteral(a.cfg.Serve.BearerToken)

			gw := gateway.New(a.cfg.Serve, p, collector.Handler(), a.logger)
			if err := gw.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", gw.Addr())

			<-cmd.Context().Done()
			return gw.Stop(context.Background())
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides serve.bind)")
	return cmd
}

// redactedYAML renders cfg as YAML with secret-looking values replaced.
func redactedYAML(cfg any, r *security.Redactor) ([]byte, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	r.RedactMap(m)
	return yaml.Marshal(m)
}

func readLine(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}
