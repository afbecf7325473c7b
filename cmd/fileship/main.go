package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bft-labs/fileship/internal/cliconfig"
	"github.com/bft-labs/fileship/pkg/fileship"
	"github.com/bft-labs/fileship/pkg/log"
)

const longHelp = `Replicate a directory tree to one or more hosts over TCP.

Run "fileship receive" on every replica and "fileship send" on the source.
Each file written under the watched directory is streamed to all receivers,
verified with BLAKE3 and published atomically, so readers on the replica
never see a partial file.

Configuration is read from $HOME/.fileship/config.toml ([send] and [receive]
tables), then FILESHIP_* environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  fileship receive --dest-dir /srv/replica
  fileship send --watch-dir /srv/outbox --dest 10.0.0.2:5001 --dest 10.0.0.3:5001
  fileship send --config ./fileship.toml --reconnect-timeout 5m
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// service is what both subcommands run until a signal arrives.
type service interface {
	Start(ctx context.Context) error
	Stop() error
	Status() fileship.State
}

// changedFlags builds the set of flags given explicitly on the command line.
func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

// loadFile loads the config file, or returns ok=false when there is none.
func loadFile(cfgPath string) (fc cliconfig.FileConfig, ok bool, err error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile == "" || !cliconfig.FileExists(cfgFile) {
		if cfgPath != "" {
			return fc, false, fmt.Errorf("config file %s not found", cfgPath)
		}
		return fc, false, nil
	}
	fc, err = cliconfig.LoadFileConfig(cfgFile)
	if err != nil {
		return fc, false, fmt.Errorf("load config: %w", err)
	}
	return fc, true, nil
}

// run starts svc and blocks until SIGINT/SIGTERM or a crash, then stops it.
func run(svc service, logger zerolog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info().Msg("received signal, stopping...")

	if err := svc.Stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

func newSendCmd(logger *zerolog.Logger, cfgPath *string) *cobra.Command {
	cfg := cliconfig.DefaultSendConfig()

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Watch a directory and replicate new files to every destination",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := changedFlags(cmd)

			fc, ok, err := loadFile(*cfgPath)
			if err != nil {
				return err
			}
			if ok {
				if err := cliconfig.ApplySendFileConfig(&cfg, fc.Send, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplySendEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			lvl, _ := cliconfig.ParseLevel(cfg.LogLevel)
			l := logger.Level(lvl)
			l.Info().Interface("config", cfg).Msg("configuration")

			s, err := fileship.NewSender(fileship.SenderConfig{
				WatchDir:          cfg.WatchDir,
				Destinations:      cfg.Destinations,
				ReconnectInterval: cfg.ReconnectInterval,
				ReconnectMax:      cfg.ReconnectMax,
				ReconnectTimeout:  cfg.ReconnectTimeout,
				DialTimeout:       cfg.DialTimeout,
				SettleDelay:       cfg.SettleDelay,
				DispatchDelay:     cfg.DispatchDelay,
				QueueSize:         cfg.QueueSize,
				Ignore:            cfg.Ignore,
			}, fileship.WithLogger(log.NewZerologAdapterWithLogger(l)))
			if err != nil {
				return fmt.Errorf("create sender: %w", err)
			}
			return run(s, l)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.WatchDir, "watch-dir", cfg.WatchDir, "directory tree to replicate")
	f.StringArrayVar(&cfg.Destinations, "dest", cfg.Destinations, "receiver address host:port (repeatable)")
	f.DurationVar(&cfg.ReconnectInterval, "reconnect-interval", cfg.ReconnectInterval, "delay between connection attempts")
	f.DurationVar(&cfg.ReconnectMax, "reconnect-max", cfg.ReconnectMax, "maximum delay between connection attempts")
	f.DurationVar(&cfg.ReconnectTimeout, "reconnect-timeout", cfg.ReconnectTimeout, "give up on an unreachable destination after this long (0 retries forever)")
	f.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "timeout of a single connection attempt")
	f.DurationVar(&cfg.SettleDelay, "settle-delay", cfg.SettleDelay, "how long a file must stay unmodified before it is sent")
	f.DurationVar(&cfg.DispatchDelay, "dispatch-delay", cfg.DispatchDelay, "pause before a stable file is queued")
	f.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "files each destination may have waiting")
	f.StringArrayVar(&cfg.Ignore, "ignore", cfg.Ignore, "glob of names never sent (repeatable)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

func newReceiveCmd(logger *zerolog.Logger, cfgPath *string) *cobra.Command {
	cfg := cliconfig.DefaultReceiveConfig()

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Accept senders and publish verified files under a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := changedFlags(cmd)

			fc, ok, err := loadFile(*cfgPath)
			if err != nil {
				return err
			}
			if ok {
				cliconfig.ApplyReceiveFileConfig(&cfg, fc.Receive, changed)
			}
			if err := cliconfig.ApplyReceiveEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			lvl, _ := cliconfig.ParseLevel(cfg.LogLevel)
			l := logger.Level(lvl)
			l.Info().Interface("config", cfg).Msg("configuration")

			r, err := fileship.NewReceiver(fileship.ReceiverConfig{
				Listen:    cfg.Listen,
				DestDir:   cfg.DestDir,
				ChunkSize: cfg.ChunkSize,
			}, fileship.WithLogger(log.NewZerologAdapterWithLogger(l)))
			if err != nil {
				return fmt.Errorf("create receiver: %w", err)
			}
			return run(r, l)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Listen, "listen", cfg.Listen, "address to accept senders on")
	f.StringVar(&cfg.DestDir, "dest-dir", cfg.DestDir, "directory received files are published under")
	f.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "payload copy buffer size in bytes")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

func main() {
	var cfgPath string
	logger := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "fileship",
		Short:         "Replicate a directory tree to one or more hosts over TCP",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.fileship/config.toml)")

	root.AddCommand(newSendCmd(&logger, &cfgPath), newReceiveCmd(&logger, &cfgPath))

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("fileship")
		os.Exit(1)
	}
}
