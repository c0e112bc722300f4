// Package cli implements the cobra-based command line for portblock.
//
// The root command is the blocker itself, so "portblock [port]" keeps the
// one-positional-argument surface. The probe subcommand lives in probe.go;
// configuration loading and logger construction live in config.go and
// logging.go.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmr-tortoise/portblock/internal/blocker"
	"github.com/mmr-tortoise/portblock/internal/model"
	"github.com/mmr-tortoise/portblock/internal/port"
	"github.com/mmr-tortoise/portblock/internal/settings"
)

// Global flag variables shared across all subcommands.
var (
	// verbose lowers the log level to debug.
	verbose bool

	// logLevel is an explicit zap level name; it overrides the config file.
	logLevel string

	// configFile is an explicit config file path.
	configFile string
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// blockFlags holds the flag values for the root (block) command.
type blockFlags struct {
	host     string
	project  string
	exitCode bool
}

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	flags := &blockFlags{}

	rootCmd := &cobra.Command{
		Use:   "portblock [port]",
		Short: "Occupy a local TCP port until interrupted",
		Long: `portblock binds a TCP port on localhost and holds it until you press Ctrl+C,
so you can watch the Unity MCP server detect the conflict and move to the
next port.

The port defaults to 8700. With --project, the port configured in the Unity
project's UserSettings/UnityMcpSettings.json is used instead.

Examples:
  portblock
  portblock 7400
  portblock --project ~/Unity/MyGame
  portblock probe 8700 --docker`,

		Args: cobra.MaximumNArgs(1),

		// We print errors ourselves in Execute.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlock(cmd, flags, args)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./portblock.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flags.host, "host", model.DefaultHost, "Address to bind on")

	rootCmd.Flags().StringVar(&flags.project, "project", "", "Unity project directory to read the MCP port from")
	rootCmd.Flags().BoolVar(&flags.exitCode, "exit-code", false, "Exit non-zero when the port cannot be blocked")

	rootCmd.AddCommand(NewProbeCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// CLIError types carry their own exit codes; other errors exit with 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(rootCmd.ErrOrStderr(), cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(rootCmd.ErrOrStderr(), err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes "Error: <message>" to w.
func printError(w io.Writer, message string, underlying error) {
	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// portChoice is the outcome of resolvePort.
type portChoice struct {
	// port is the port to block or check.
	port int

	// valid is false when the positional argument was not an integer and
	// port fell back to the default.
	valid bool

	// editor holds the Unity settings the port came from, or nil when the
	// port came from the argument or the configured default.
	editor *settings.EditorSettings
}

// advisories collects the warnings for the chosen port: the port range
// advisories, plus the editor settings ones when the port came from a
// Unity project.
func (c portChoice) advisories() []string {
	adv := port.Advisories(c.port)
	if c.editor != nil {
		adv = append(adv, c.editor.Advisories()...)
	}
	return adv
}

// resolvePort picks the port for the block and probe commands.
//
// The order is:
//  1. The positional argument, when one is given.
//  2. The customPort of the Unity project passed with --project.
//  3. The configured default port (8700 unless the config file says otherwise).
//
// A non-integer argument does not fail here; the caller decides whether
// to warn and fall back (block) or reject it (probe).
func resolvePort(args []string, project string, cfg *Config, logger *zap.Logger) (portChoice, error) {
	choice := portChoice{}
	fallback := cfg.DefaultPort

	// Only read the project settings when no argument overrides them, so
	// "portblock 7400 --project X" works even if X has no settings file.
	if len(args) == 0 && project != "" {
		s, err := settings.Load(project)
		if err != nil {
			return choice, err
		}
		logger.Debug("using port from Unity settings",
			zap.String("path", settings.Path(project)),
			zap.Int("port", s.Port()),
			zap.Bool("autoStartServer", s.AutoStartServer))
		fallback = s.Port()
		choice.editor = s
	}

	choice.port, choice.valid = port.ParseArg(args, fallback)
	return choice, nil
}

// runBlock is the main logic of the root command.
//
// It resolves the port, prints any warnings about it, and hands over to
// blocker.Run until SIGINT or SIGTERM. A failed bind is reported on the
// console by the blocker; it only turns into an error (and a non-zero exit
// code) when --exit-code is set.
func runBlock(cmd *cobra.Command, flags *blockFlags, args []string) error {
	// Step 1: Load config and build the logger
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out := cmd.OutOrStdout()

	// Step 2: Resolve the port
	choice, err := resolvePort(args, flags.project, cfg, logger)
	if err != nil {
		return err
	}
	p := choice.port
	if !choice.valid {
		fmt.Fprintf(out, "❌ Invalid port number. Using default port %d\n", p)
	}

	// Step 3: Warn about ports the MCP server would reject and about
	// editor settings that race with the block. The block still proceeds.
	for _, adv := range choice.advisories() {
		fmt.Fprintf(out, "⚠️  %s\n", adv)
	}

	fmt.Fprintf(out, "🚀 Starting port blocker for port %d\n", p)

	// Step 4: Hold the port until interrupted. NotifyContext cancels ctx
	// on the first SIGINT or SIGTERM; stop restores default signal
	// handling, so a second Ctrl+C kills the process.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := blocker.New(blocker.Config{
		Host:   cfg.Host,
		Port:   p,
		Out:    out,
		Logger: logger,
	})
	if b.Run(ctx) {
		return nil
	}

	// Step 5: Map a failed bind to an exit code, only when asked to
	logger.Debug("block failed", zap.Error(b.Err()))
	if !cfg.ExitCode {
		return nil
	}
	if errors.Is(b.Err(), blocker.ErrAddressInUse) {
		return model.WrapCLIError(model.ExitPortInUse, fmt.Sprintf("port %d is already in use", p), b.Err())
	}
	return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("could not block port %d", p), b.Err())
}
