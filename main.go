package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/olivier-w/decks/internal/broadcast"
	"github.com/olivier-w/decks/internal/config"
	"github.com/olivier-w/decks/internal/decoder"
	"github.com/olivier-w/decks/internal/library"
	"github.com/olivier-w/decks/internal/media"
	"github.com/olivier-w/decks/internal/mixbus"
	"github.com/olivier-w/decks/internal/output"
	"github.com/olivier-w/decks/internal/session"
	"github.com/olivier-w/decks/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagValues holds command-line overrides; zero values mean "not set".
type flagValues struct {
	configPath string
	decks      int
	sampleRate int
	blockSize  int
	broadcast  string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           "decks [files, folders or playlists...]",
		Short:         "Terminal DJ decks with per-deck speed, filters and spectrum",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	formatsCmd := &cobra.Command{
		Use:   "formats",
		Short: "List supported audio formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), media.SupportedExtsList())
		},
	}
	rootCmd.AddCommand(formatsCmd)

	f := rootCmd.PersistentFlags()
	f.StringVarP(&fv.configPath, "config", "c", "", "YAML config file (default "+config.DefaultPath+" if present)")
	f.IntVarP(&fv.decks, "decks", "n", config.DefaultDecks, "Number of decks")
	f.IntVarP(&fv.sampleRate, "sample-rate", "r", config.DefaultSampleRate, "Output sample rate in Hz")
	f.IntVarP(&fv.blockSize, "block-size", "b", config.DefaultBlockSize, "Frames per processing block")
	f.StringVar(&fv.broadcast, "broadcast", "", "Serve deck snapshots over websocket on this address (e.g. :8080)")
	f.StringVar(&fv.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")

	return rootCmd
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, fv flagValues) (*config.Config, error) {
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("decks") {
		cfg.Decks = fv.decks
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if flags.Changed("block-size") {
		cfg.Audio.BlockSize = fv.blockSize
	}
	if flags.Changed("broadcast") {
		cfg.Broadcast.Addr = fv.broadcast
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = fv.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging sends logrus output to the configured file, since the
// terminal belongs to the UI.
func setupLogging(cfg *config.Config) (io.Closer, error) {
	logrus.SetLevel(cfg.LogLevel())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	if cfg.Log.File == "" {
		logrus.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	return f, nil
}

func newSession(cfg *config.Config) *session.Session {
	return session.New(session.Options{
		Decks:      cfg.Decks,
		BlockSize:  cfg.Audio.BlockSize,
		SampleRate: float64(cfg.Audio.SampleRate),
		Decoder:    decoder.Decoder{},
		Store:      library.FileStore{Path: cfg.Library.Path},
	})
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	logFile, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := newSession(cfg)
	if n, err := sess.LoadCatalog(); err != nil {
		logrus.WithError(err).Warn("could not restore playlist")
	} else {
		logrus.WithField("tracks", n).Info("playlist restored")
	}
	if len(args) > 0 {
		paths := media.ExpandPaths(args)
		n := sess.Add(paths...)
		logrus.WithFields(logrus.Fields{"given": len(paths), "added": n}).Info("added from command line")
	}

	dev, err := output.Open(mixbus.NewReader(sess.Bus()), cfg.Audio.SampleRate, cfg.Audio.Buffer)
	if err != nil {
		return err
	}
	defer dev.Close()

	opts := ui.Options{FPS: cfg.UI.FPS}
	if cfg.Broadcast.Addr != "" {
		hub := broadcast.NewHub()
		go func() {
			if err := hub.Serve(ctx, cfg.Broadcast.Addr); err != nil {
				logrus.WithError(err).Error("visualizer server stopped")
			}
		}()
		opts.Publish = func(s session.Snapshot) { hub.Publish(s) }
	}

	p := tea.NewProgram(ui.New(sess, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	if err := sess.Shutdown(); err != nil {
		logrus.WithError(err).Error("could not save playlist")
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil && ctx.Err() != nil {
		// Interrupted by a signal.
		return nil
	}
	return runErr
}
