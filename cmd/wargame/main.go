package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wargame2d/engine/internal/agent"
	"github.com/wargame2d/engine/internal/config"
	"github.com/wargame2d/engine/internal/logging"
	intOtel "github.com/wargame2d/engine/internal/otel"
	"github.com/wargame2d/engine/internal/runner"
	"github.com/wargame2d/engine/internal/scenario"
	"github.com/wargame2d/engine/internal/storage"
	"github.com/wargame2d/engine/internal/world"
	"github.com/wargame2d/engine/pkg/core"
)

// BuildVersion and BuildDate can be set at build time via ldflags
var (
	BuildVersion = "0.0.1"
	BuildDate    = "unknown"
)

const appName = "wargame"

type options struct {
	configDir    string
	scenarioPath string
	seed         uint64
	blue         string
	red          string
	replay       string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "wargame:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*pflag.FlagSet, options, error) {
	var o options
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.StringVarP(&o.configDir, "config", "c", ".", "directory holding "+config.FileName)
	fs.StringVarP(&o.scenarioPath, "scenario", "s", "", "scenario file (JSON or YAML); empty plays the built-in scenario")
	fs.Uint64Var(&o.seed, "seed", 0, "override the scenario seed")
	fs.StringVar(&o.blue, "blue", "", "agent type for BLUE (random, doctrine, wait)")
	fs.StringVar(&o.red, "red", "", "agent type for RED (random, doctrine, wait)")
	fs.StringVarP(&o.replay, "replay", "o", "", "write the replay document to this file")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("storage", "memory", "turn recorder: memory or sqlite")
	fs.Bool("diagonal", false, "allow diagonal moves")
	fs.Int("max-turns", 0, "override the scenario turn limit")

	if err := fs.Parse(args); err != nil {
		return nil, o, err
	}
	return fs, o, nil
}

func bindFlags(fs *pflag.FlagSet) error {
	for key, flag := range map[string]string{
		"logLevel":                "log-level",
		"storage.type":            "storage",
		"engine.diagonalMoves":    "diagonal",
		"engine.maxTurnsOverride": "max-turns",
	} {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(args []string) error {
	fs, opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if err := config.Load(opts.configDir); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	if err := bindFlags(fs); err != nil {
		return err
	}

	start := time.Now()
	sess, err := setupLogging(start)
	if err != nil {
		return err
	}
	defer sess.close()
	log := sess.slog.Logger()
	log.Info("wargame starting", "version", BuildVersion, "buildDate", BuildDate)

	sc, err := loadScenario(opts, fs)
	if err != nil {
		return err
	}

	engineCfg := config.GetEngineConfig()
	if engineCfg.MaxTurnsOverride > 0 {
		sc.Config.MaxTurns = engineCfg.MaxTurnsOverride
	}
	worldOpts := []world.Option{
		world.WithLogger(log),
		world.WithMeter(sess.otel.Meter("github.com/wargame2d/engine/internal/world")),
	}
	if engineCfg.DiagonalMoves {
		worldOpts = append(worldOpts, world.WithDiagonalMoves(true))
	}

	w, err := world.New(sc, worldOpts...)
	if err != nil {
		return err
	}
	sess.context.Bind(w.LogAttrs)

	agents := make(map[core.Team]agent.Agent, len(core.Teams))
	for _, team := range core.Teams {
		spec, ok := scenario.Agent(sc, team)
		if !ok {
			spec = core.AgentSpec{Team: team, Type: "random", Seed: sc.Config.Seed + uint64(team)}
		}
		a, err := agent.New(spec)
		if err != nil {
			return err
		}
		agents[team] = a
	}

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, sess.zerolog)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s storage: %w", storageCfg.Type, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("closing storage", "error", err)
		}
	}()

	r, err := runner.New(runner.Dependencies{
		World:    w,
		Agents:   agents,
		Recorder: backend,
		Logger:   log,
		Scenario: sc.Name,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := r.Run(ctx)
	if err := printSummary(os.Stdout, summary); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if lc, ok := backend.(storage.LossCounter); ok {
		if err := checkLosses(lc, summary); err != nil {
			log.Warn("stored losses disagree with the summary", "error", err)
		}
	}

	path := replayPath(opts.replay, storageCfg.Memory, sc.Name, summary)
	if path == "" {
		return nil
	}
	exp, ok := backend.(storage.Exporter)
	if !ok {
		log.Warn("storage backend cannot export replays", "type", storageCfg.Type)
		return nil
	}
	if err := writeReplay(exp, path, storageCfg.Memory.CompressOutput); err != nil {
		return err
	}
	log.Info("replay written", "path", path)
	return nil
}

func loadScenario(opts options, fs *pflag.FlagSet) (core.Scenario, error) {
	sc := scenario.Default()
	if opts.scenarioPath != "" {
		var err error
		sc, err = scenario.Load(opts.scenarioPath)
		if err != nil {
			return sc, err
		}
	}
	if fs.Changed("seed") {
		sc.Config.Seed = opts.seed
	}
	overrideAgent(&sc, core.TeamBlue, opts.blue)
	overrideAgent(&sc, core.TeamRed, opts.red)
	return sc, nil
}

// overrideAgent swaps the agent type of team, keeping the rest of its record.
func overrideAgent(sc *core.Scenario, team core.Team, kind string) {
	if kind == "" {
		return
	}
	for i := range sc.Agents {
		if sc.Agents[i].Team == team {
			sc.Agents[i].Type = kind
			sc.Agents[i].Name = ""
			return
		}
	}
	sc.Agents = append(sc.Agents, core.AgentSpec{Team: team, Type: kind, Seed: sc.Config.Seed + uint64(team)})
}

func replayPath(flagPath string, mem config.MemoryConfig, name string, s runner.Summary) string {
	if flagPath != "" {
		return flagPath
	}
	if mem.ReplayDir == "" {
		return ""
	}
	if name == "" {
		name = appName
	}
	file := fmt.Sprintf("%s_%s.json", name, s.EpisodeID)
	if mem.CompressOutput {
		file += ".gz"
	}
	return filepath.Join(mem.ReplayDir, file)
}

func writeReplay(exp storage.Exporter, path string, compress bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating replay directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating replay file: %w", err)
	}
	if err := exp.WriteReplay(f, compress); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing replay: %w", err)
	}
	return f.Close()
}

// checkLosses compares the per-team losses counted from stored state rows
// with the runner's totals.
func checkLosses(lc storage.LossCounter, s runner.Summary) error {
	var errs []error
	for _, team := range core.Teams {
		stored, err := lc.Losses(team)
		if err != nil {
			return fmt.Errorf("counting %s losses: %w", team, err)
		}
		var want int64
		if st, ok := s.Teams[team]; ok {
			want = int64(st.Losses)
		}
		if stored != want {
			errs = append(errs, fmt.Errorf("%s: stored %d, counted %d", team, stored, want))
		}
	}
	return errors.Join(errs...)
}

func printSummary(out io.Writer, s runner.Summary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// session owns the log sinks of one run.
type session struct {
	slog    *logging.SlogManager
	otel    *intOtel.Provider
	zerolog zerolog.Logger
	context *logging.Lazy
	closers []io.Closer
}

func setupLogging(start time.Time) (*session, error) {
	s := &session{slog: logging.NewSlogManager(), context: &logging.Lazy{}}

	// an empty logsDir logs to stdout
	logsDir := config.GetString("logsDir")
	var logOut io.Writer = os.Stdout
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating logs directory: %w", err)
		}
		logFile, err := os.OpenFile(logging.LogFilePath(logsDir, appName, start), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		s.closers = append(s.closers, logFile)
		logOut = logFile
	}

	otelCfg := config.GetOTelConfig()
	pcfg := intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ServiceVersion: BuildVersion,
		BatchTimeout:   otelCfg.BatchTimeout,
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	}
	if otelCfg.Enabled && logsDir != "" {
		otelFile, err := os.OpenFile(logging.LogFilePath(logsDir, appName+".otel", start), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("opening otel log file: %w", err)
		}
		s.closers = append(s.closers, otelFile)
		pcfg.LogWriter = otelFile
	}
	otelProvider, err := intOtel.New(pcfg)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("setting up otel: %w", err)
	}
	s.otel = otelProvider

	opts := logging.Options{
		File:     logOut,
		Level:    config.GetString("logLevel"),
		Provider: s.otel.LoggerProvider(),
		Context:  s.context.Attrs,
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		gw, err := logging.NewGELFWriter(gl.Address)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("connecting to graylog: %w", err)
		}
		s.closers = append(s.closers, gw)
		opts.GELF = gw
	}
	s.slog.Setup(opts)

	level, err := zerolog.ParseLevel(config.GetString("logLevel"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	s.zerolog = zerolog.New(logOut).Level(level).With().Timestamp().Str("component", "storage").Logger()

	return s, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.slog != nil {
		if err := s.slog.Flush(ctx); err != nil {
			slog.Warn("flushing logs", "error", err)
		}
	}
	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			slog.Warn("shutting down otel", "error", err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
}
