package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/EgorLis/trtl/internal/bot"
	"github.com/EgorLis/trtl/pkg/blacket"
)

func printResult(cmd *cobra.Command, res blacket.Result) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	if res.Failed() {
		return errors.New(res.Reason())
	}
	return nil
}

// resultCmd — команда, которая просто печатает ответ сервера
func resultCmd(use, short string, args cobra.PositionalArgs, run func(ctx context.Context, c *blacket.Client, args []string) (blacket.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			res, err := run(cmd.Context(), c, args)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
}

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "log in and print the session token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := blacket.NewAccounts(options())
		if err != nil {
			return err
		}
		token, err := a.Login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <password> <access-code>",
	Short: "request an account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := blacket.NewAccounts(options())
		if err != nil {
			return err
		}
		res, err := a.Register(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "check that the configured session is alive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.FetchUser(cmd.Context(), "")
		if err != nil {
			return err
		}
		if res.Failed() {
			return fmt.Errorf("session rejected: %s", res.Reason())
		}
		var u struct {
			User struct {
				Username string `json:"username"`
			} `json:"user"`
		}
		if err := res.Decode(&u); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "session ok: %s@%s\n", u.User.Username, c.Instance())
		return nil
	},
}

var blookOut string

var blookCmd = &cobra.Command{
	Use:   "blook <name>",
	Short: "download a blook image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := blacket.NewContent(options())
		if err != nil {
			return err
		}
		rc, err := content.Blook(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer rc.Close()

		out := blookOut
		if out == "" {
			out = args[0] + ".png"
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, rc); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "run the chat bot until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		b := bot.New(c)
		b.SetLogger(log)
		b.SetMetrics(reporter)
		if err := b.UseConfig(cfg.Bot.Config); err != nil {
			return err
		}
		if cfg.Bot.Room != "" {
			b.SetRoom(cfg.Bot.Room)
		}

		if cfg.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", reporter.Handler())
			srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("metrics server")
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			log.WithField("addr", cfg.MetricsAddr).Info("metrics on /metrics")
		}

		if err := b.Start(ctx); err != nil {
			return err
		}
		defer b.Stop()

		log.Info("running… press Ctrl+C to stop")
		<-ctx.Done()
		return nil
	},
}

func init() {
	blookCmd.Flags().StringVarP(&blookOut, "output", "o", "", "output file (default <name>.png)")

	rootCmd.AddCommand(
		loginCmd,
		registerCmd,
		sessionCmd,
		blookCmd,
		botCmd,
		resultCmd("user [name]", "show a user profile (yours by default)", cobra.MaximumNArgs(1),
			func(ctx context.Context, c *blacket.Client, args []string) (blacket.Result, error) {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				return c.FetchUser(ctx, name)
			}),
		resultCmd("leaderboard", "show the leaderboard", cobra.NoArgs,
			func(ctx context.Context, c *blacket.Client, _ []string) (blacket.Result, error) {
				return c.FetchLeaderboard(ctx)
			}),
		resultCmd("news", "show instance news", cobra.NoArgs,
			func(ctx context.Context, c *blacket.Client, _ []string) (blacket.Result, error) {
				return c.FetchNews(ctx)
			}),
		resultCmd("claim", "claim the daily reward", cobra.NoArgs,
			func(ctx context.Context, c *blacket.Client, _ []string) (blacket.Result, error) {
				return c.ClaimDailyReward(ctx)
			}),
	)
}
