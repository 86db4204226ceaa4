package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/EgorLis/trtl/internal/config"
	"github.com/EgorLis/trtl/internal/metrics"
	"github.com/EgorLis/trtl/pkg/blacket"
	"github.com/EgorLis/trtl/pkg/logger"
	"github.com/EgorLis/trtl/pkg/request"
)

var (
	configPath string
	flags      config.Config
	proxyFlag  string

	cfg      config.Config
	log      logger.Logger
	reporter *metrics.Reporter
)

var rootCmd = &cobra.Command{
	Use:           "trtl",
	Short:         "client for a Blacket instance",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.New("info")

		loaded, path, err := config.Load(log, configPath)
		if err != nil {
			return err
		}
		if proxyFlag != "" {
			u, err := url.Parse(proxyFlag)
			if err != nil || u.Host == "" {
				return fmt.Errorf("bad --proxy %q: want scheme://host:port", proxyFlag)
			}
			flags.Proxy = config.ProxyConfig{Scheme: u.Scheme, Address: u.Host}
		}
		loaded.Override(flags)
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		log = logger.New(cfg.LogLevel)
		logger.SetLogger(log)
		log.WithField("config", path).Debug("config loaded")

		reporter = metrics.New(map[string]string{"instance": cfg.Instance})
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (default ./trtl.yaml)")
	pf.StringVarP(&flags.Session, "session", "s", "", "connect.sid session token")
	pf.StringVarP(&flags.Instance, "instance", "i", "", "instance host, e.g. v2.blacket.org")
	pf.BoolVar(&flags.Insecure, "insecure", false, "use http/ws instead of https/wss")
	pf.StringVar(&proxyFlag, "proxy", "", "proxy url: http://host:port or socks5://host:port")
	pf.StringVar(&flags.LogLevel, "log-level", "", "debug|info|warn|error")
}

func options() blacket.Options {
	return blacket.Options{
		Instance: cfg.Instance,
		Insecure: cfg.Insecure,
		Proxy:    request.NewProxy(cfg.Proxy.Scheme, cfg.Proxy.Address),
		Logger:   log,
		Reporter: reporter,
	}
}

func newClient() (*blacket.Client, error) {
	if cfg.Session == "" {
		return nil, fmt.Errorf("no session: pass --session, set TRTL_SESSION or run `trtl login`")
	}
	return blacket.New(cfg.Session, options())
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
