package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/portblock/internal/docker"
	"github.com/mmr-tortoise/portblock/internal/model"
	"github.com/mmr-tortoise/portblock/internal/port"
)

// probeFlags holds the flag values for the probe command.
type probeFlags struct {
	docker bool
	output string
}

// NewProbeCommand creates the "probe" command. Port resolution matches the
// root command: argument, then --project, then the configured default.
func NewProbeCommand() *cobra.Command {
	flags := &probeFlags{}
	var project string

	cmd := &cobra.Command{
		Use:   "probe [port]",
		Short: "Check whether a single port is free",
		Long: `Check once whether the port can be bound, without holding it.

With --docker, also list Docker containers that publish the port on the host.

Examples:
  portblock probe
  portblock probe 7400 --output json
  portblock probe 8700 --docker`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, flags, project, args)
		},
	}

	cmd.Flags().BoolVar(&flags.docker, "docker", false, "List Docker containers publishing the port")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "Output format: text, json, yaml")
	cmd.Flags().StringVar(&project, "project", "", "Unity project directory to read the MCP port from")

	return cmd
}

func runProbe(cmd *cobra.Command, flags *probeFlags, project string, args []string) error {
	format := strings.ToLower(flags.output)
	if format != "text" && format != "json" && format != "yaml" {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid output format %q: valid values are text, json, yaml", flags.output))
	}

	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	choice, err := resolvePort(args, project, cfg, logger)
	if err != nil {
		return err
	}
	if !choice.valid {
		return model.NewCLIError(model.ExitInvalidPort, fmt.Sprintf("invalid port number %q", args[0]))
	}
	p := choice.port
	if err := port.ValidateRange(p); err != nil {
		return model.WrapCLIError(model.ExitInvalidPort, "invalid port", err)
	}

	ctx := cmd.Context()
	report := port.NewProber(cfg.Host, logger).Report(ctx, p)
	if choice.editor != nil {
		report.Advisories = append(report.Advisories, choice.editor.Advisories()...)
	}

	if flags.docker {
		publishers, err := lookupPublishers(ctx, p, logger)
		if err != nil {
			return err
		}
		report.Publishers = publishers
	}

	return printProbeReport(cmd.OutOrStdout(), report, format)
}

// lookupPublishers connects to Docker and lists the containers publishing p.
func lookupPublishers(ctx context.Context, p int, logger *zap.Logger) ([]model.ContainerPublisher, error) {
	cli, err := docker.NewClient()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}
	logger.Debug("connected to Docker daemon")

	publishers, err := docker.ListPublishers(ctx, cli, p)
	if err != nil {
		return nil, err
	}
	logger.Debug("docker lookup finished", zap.Int("port", p), zap.Int("publishers", len(publishers)))
	return publishers, nil
}

// printProbeReport renders report in the requested format.
func printProbeReport(w io.Writer, report *model.ProbeReport, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprint(w, string(data))
	default:
		printProbeText(w, report)
	}
	return nil
}

func printProbeText(w io.Writer, report *model.ProbeReport) {
	fmt.Fprintf(w, "Port %d on %s: %s\n", report.Port, report.Host, report.Status)
	if report.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", report.Reason)
	}
	for _, adv := range report.Advisories {
		fmt.Fprintf(w, "  Warning: %s\n", adv)
	}
	for _, pub := range report.Publishers {
		fmt.Fprintf(w, "  Published by: %s\n", pub)
	}
}
