package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const Version = "0.2.0"

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Client configures cmd/wordgames.
type Client struct {
	Address     string
	Settings    string
	Tick        time.Duration
	LogLevel    string
	LogJSON     bool
	MetricsAddr string
}

func (c *Client) Validate() error {
	if c.Address != "" {
		if err := validateAddress(c.Address); err != nil {
			return err
		}
	}
	if c.Tick < time.Millisecond || c.Tick > time.Second {
		return fmt.Errorf("invalid tick (must be between 1ms and 1s): %v", c.Tick)
	}
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	return nil
}

func validateAddress(addr string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid address (scheme must be ws or wss): %q", addr)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid address (missing host): %q", addr)
	}
	return nil
}

// Server configures cmd/server.
type Server struct {
	Bind      string
	Port      int
	RoundTime time.Duration
	BreakTime time.Duration
	Rounds    int
	LogLevel  string
	LogJSON   bool
}

func (c *Server) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.RoundTime <= 0 || c.BreakTime <= 0 {
		return errors.New("--round-time and --break-time must be positive")
	}
	if c.Rounds < 1 {
		return fmt.Errorf("invalid rounds (must be at least 1): %d", c.Rounds)
	}
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	return nil
}

func (c *Server) ListenAddr() string { return fmt.Sprintf("%s:%d", c.Bind, c.Port) }

// LoadDotEnv reads .env from the working directory when there is one.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func NewClientCommand(cfg *Client, run func(cmd *cobra.Command, cfg *Client) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wordgames",
		Short:   "Terminal client for the wordgames anagram server.",
		Args:    cobra.ExactArgs(0),
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Address, "address", "a", "", "server websocket URL; overrides the saved one (env: WORDGAMES_ADDRESS)")
	fs.StringVar(&cfg.Settings, "settings", "", "settings store: sqlite://path, redis://host:port/db or memory:// (env: WORDGAMES_SETTINGS)")
	fs.DurationVar(&cfg.Tick, "tick", 100*time.Millisecond, "render tick (env: WORDGAMES_TICK)")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "debug, info, warn or error (env: WORDGAMES_LOG_LEVEL)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "log as JSON (env: WORDGAMES_LOG_JSON)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "serve /metrics on this address (env: WORDGAMES_METRICS_ADDR)")

	finish(cmd, "WORDGAMES", "wordgames")
	return cmd
}

func NewServerCommand(cfg *Server, run func(cmd *cobra.Command, cfg *Server) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "server",
		Short:   "Local wordgames server for development and testing.",
		Args:    cobra.ExactArgs(0),
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDGAMES_SERVER_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 3000, "port to listen on (env: WORDGAMES_SERVER_PORT)")
	fs.DurationVar(&cfg.RoundTime, "round-time", 30*time.Second, "time to guess each word (env: WORDGAMES_SERVER_ROUND_TIME)")
	fs.DurationVar(&cfg.BreakTime, "break-time", 5*time.Second, "pause between rounds (env: WORDGAMES_SERVER_BREAK_TIME)")
	fs.IntVar(&cfg.Rounds, "rounds", 5, "rounds per game (env: WORDGAMES_SERVER_ROUNDS)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: WORDGAMES_SERVER_LOG_LEVEL)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "log as JSON (env: WORDGAMES_SERVER_LOG_JSON)")

	finish(cmd, "WORDGAMES_SERVER", "server")
	return cmd
}

// finish binds every flag to its environment variable and applies the
// shared cobra settings.
func finish(cmd *cobra.Command, envPrefix, name string) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate(name + " v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
}
