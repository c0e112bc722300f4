package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mmr-tortoise/portblock/internal/model"
)

// Config is the resolved configuration of one invocation.
// Precedence: flag > config file > built-in default. The environment is
// not consulted.
type Config struct {
	Host        string
	DefaultPort int
	LogLevel    string
	ExitCode    bool
}

// configKeys maps config keys to the flag that overrides them. Keys without
// a flag can only be set in the config file.
var configKeys = map[string]string{
	"host":         "host",
	"log-level":    "log-level",
	"exit-code":    "exit-code",
	"default-port": "",
}

// LoadConfig builds a Config for cmd. An explicit --config file must exist;
// the implicit ./portblock.yaml is optional.
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetDefault("host", model.DefaultHost)
	v.SetDefault("default-port", model.DefaultPort)
	v.SetDefault("log-level", "info")
	v.SetDefault("exit-code", false)

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	for key, flagName := range configKeys {
		if flagName == "" {
			continue
		}
		if err := bindFlag(v, key, cmd.Flags().Lookup(flagName)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Host:        v.GetString("host"),
		DefaultPort: v.GetInt("default-port"),
		LogLevel:    strings.ToLower(v.GetString("log-level")),
		ExitCode:    v.GetBool("exit-code"),
	}

	// --verbose only wins when --log-level was not given explicitly.
	if verbose && !flagChanged(cmd, "log-level") {
		cfg.LogLevel = "debug"
	}
	if cfg.Host == "" {
		cfg.Host = model.DefaultHost
	}
	if cfg.DefaultPort < model.MinPort || cfg.DefaultPort > model.MaxPort {
		return nil, model.NewCLIError(model.ExitInvalidPort,
			fmt.Sprintf("default-port %d out of range (%d-%d)", cfg.DefaultPort, model.MinPort, model.MaxPort))
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to read config %s", path), err)
		}
		return nil
	}

	v.SetConfigName("portblock")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return model.WrapCLIError(model.ExitGeneralError, "failed to read portblock.yaml", err)
	}
	return nil
}

// bindFlag binds key to flag. Subcommands do not define every flag, so a
// missing flag is skipped.
func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) error {
	if flag == nil {
		return nil
	}
	return v.BindPFlag(key, flag)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
