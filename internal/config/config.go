// Package config loads RoboClone settings from environment variables and
// command-line flags. Flags win over the environment; nothing is persisted.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"roboclone/internal/engine"
	"roboclone/internal/logging"
)

// ErrHelp is returned by Load when --help was given. Usage has already been printed.
var ErrHelp = pflag.ErrHelp

// maxThreads is the largest /MT value robocopy accepts.
const maxThreads = 128

// Config holds everything needed to run one backup.
type Config struct {
	// Job
	Source     string
	Target     string
	Exclusions []string
	DryRun     bool
	PostAction engine.PostAction

	// Tool
	Tool      string
	Mirror    bool
	Retries   int
	RetryWait int
	Threads   int

	// Logging and metrics
	LogDir      string
	LogLevel    string
	LogFormat   string
	MetricsAddr string

	// Interface
	Plain       bool
	Form        bool
	Notify      bool
	ShowVersion bool
}

// Load reads the environment, then parses args (without the program name).
// Usage and parse errors are written to out.
func Load(args []string, out io.Writer) (*Config, error) {
	cfg := &Config{
		Tool:        envOr("ROBOCLONE_TOOL", engine.DefaultJobOptions().Tool),
		Mirror:      envBool("ROBOCLONE_MIRROR", true),
		Retries:     envInt("ROBOCLONE_RETRIES", 0),
		RetryWait:   envInt("ROBOCLONE_RETRY_WAIT", 0),
		Threads:     envInt("ROBOCLONE_THREADS", 0),
		LogDir:      envOr("ROBOCLONE_LOG_DIR", defaultLogDir()),
		LogLevel:    envOr("ROBOCLONE_LOG_LEVEL", "info"),
		LogFormat:   envOr("ROBOCLONE_LOG_FORMAT", "json"),
		MetricsAddr: envOr("ROBOCLONE_METRICS_ADDR", ""),
		Notify:      envBool("ROBOCLONE_NOTIFY", true),
	}

	fs := pflag.NewFlagSet("roboclone", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false

	fs.StringVarP(&cfg.Source, "source", "s", "", "Folder to back up.")
	fs.StringVarP(&cfg.Target, "target", "t", "", "Folder that receives the mirror.")
	excludes := fs.StringArrayP("exclude", "x", nil, "File or folder pattern to skip; repeat or separate with ';'.")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "n", false, "List what would change without copying.")
	postAction := fs.StringP("post-action", "a", "none", "After the copy: none, close, reboot or shutdown.")
	fs.StringVar(&cfg.Tool, "tool", cfg.Tool, "Copy tool to run.")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retries per failed file (/R).")
	fs.IntVar(&cfg.RetryWait, "retry-wait", cfg.RetryWait, "Seconds between retries (/W).")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "Copy threads (/MT); 0 or 1 copies one file at a time.")
	fs.StringVarP(&cfg.LogDir, "log-dir", "l", cfg.LogDir, "Directory for robocopy and application logs.")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Application log level: debug, info, warn or error.")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Application log format: json or console.")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address.")
	fs.BoolVarP(&cfg.Plain, "plain", "p", false, "Print progress lines instead of the full-screen interface.")
	fs.BoolVarP(&cfg.Form, "form", "f", false, "Fill in the job with the setup form.")
	noNotify := fs.Bool("no-notify", false, "Do not notify when the copy finishes.")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", false, "Show version info.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	action, err := engine.ParsePostAction(*postAction)
	if err != nil {
		return nil, err
	}
	cfg.PostAction = action
	cfg.Exclusions = engine.NormalizeExclusions(*excludes)
	if *noNotify {
		cfg.Notify = false
	}

	// Positional source and target, as in "roboclone C:\data E:\backup".
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 2:
		if cfg.Source != "" || cfg.Target != "" {
			return nil, errors.New("give source and target either as flags or as arguments, not both")
		}
		cfg.Source, cfg.Target = rest[0], rest[1]
	default:
		return nil, fmt.Errorf("expected source and target, got %d arguments", len(rest))
	}

	return cfg, nil
}

// Validate checks values that cannot be checked while parsing.
func (c *Config) Validate() error {
	if c.ShowVersion {
		return nil
	}
	if c.Tool == "" {
		return errors.New("tool must not be empty")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be zero or more, got %d", c.Retries)
	}
	if c.RetryWait < 0 {
		return fmt.Errorf("retry wait must be zero or more, got %d", c.RetryWait)
	}
	if c.Threads < 0 || c.Threads > maxThreads {
		return fmt.Errorf("threads must be between 0 and %d, got %d", maxThreads, c.Threads)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q (want json or console)", c.LogFormat)
	}
	if (c.Source == "") != (c.Target == "") {
		return errors.New("both source and target are required")
	}
	if c.Plain && c.NeedsForm() {
		return errors.New("--plain needs --source and --target")
	}
	return nil
}

// NeedsForm reports whether the job has to be filled in interactively.
func (c *Config) NeedsForm() bool {
	return c.Form || (c.Source == "" && c.Target == "")
}

// Request is the copy request described by the configuration.
func (c *Config) Request() engine.CopyRequest {
	return engine.CopyRequest{
		Source:     c.Source,
		Target:     c.Target,
		Exclusions: append([]string(nil), c.Exclusions...),
		DryRun:     c.DryRun,
	}
}

// JobOptions are the tool settings for the engine.
func (c *Config) JobOptions() engine.JobOptions {
	return engine.JobOptions{
		Tool:      c.Tool,
		Mirror:    c.Mirror,
		Retries:   c.Retries,
		RetryWait: c.RetryWait,
		Threads:   c.Threads,
	}
}

// Logging is the application logger configuration. The log always goes to a file
// because the terminal belongs to the progress display.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		OutputPath: filepath.Join(c.LogDir, logging.DefaultFile),
	}
}

// defaultLogDir is "logs" next to the executable, or in the working directory
// when the executable cannot be located.
func defaultLogDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(exe), "logs")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
