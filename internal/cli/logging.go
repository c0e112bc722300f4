package cli

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mmr-tortoise/portblock/internal/model"
)

// NewLogger builds the diagnostic logger. It writes human-readable lines to
// w (stderr in practice) so they do not mix with the status lines on stdout.
func NewLogger(w io.Writer, level string) (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevel()
	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("invalid log level %q", level), err)
		}
	}

	logConfig := zap.NewDevelopmentEncoderConfig()
	logConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(logConfig), zapcore.AddSync(w), logLevel)

	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)).Named("portblock"), nil
}
