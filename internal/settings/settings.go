// Package settings reads the MCP editor settings a Unity project stores under
// UserSettings/UnityMcpSettings.json, so portblock can occupy the exact port
// the project's MCP server is configured to start on.
//
// Unity writes plain JSON, but hand-edited copies often carry comments or
// trailing commas, so the file is passed through github.com/tidwall/jsonc
// before encoding/json sees it.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/portblock/internal/model"
)

const (
	// userSettingsDir is the per-user settings folder at the project root.
	userSettingsDir = "UserSettings"

	// fileName is the MCP editor settings file inside userSettingsDir.
	fileName = "UnityMcpSettings.json"
)

// EditorSettings is the subset of the MCP editor settings portblock reads.
// Unknown fields are ignored.
type EditorSettings struct {
	// CustomPort is the port the MCP server starts on. Zero means unset.
	CustomPort int `json:"customPort"`

	// AutoStartServer reports whether the server starts with the editor.
	AutoStartServer bool `json:"autoStartServer"`
}

// Port returns CustomPort, or model.DefaultPort when it is unset.
func (s *EditorSettings) Port() int {
	if s.CustomPort == 0 {
		return model.DefaultPort
	}
	return s.CustomPort
}

// Advisories returns warnings about settings that affect a block on Port.
// An auto-starting server grabs its port as soon as the editor opens, so
// the block has to be in place first.
func (s *EditorSettings) Advisories() []string {
	if !s.AutoStartServer {
		return nil
	}
	return []string{fmt.Sprintf(
		"autoStartServer is enabled: the MCP server starts with the Unity editor, so start portblock before opening the project (port %d)",
		s.Port())}
}

// Path returns the settings file location for a Unity project directory.
func Path(projectDir string) string {
	return filepath.Join(projectDir, userSettingsDir, fileName)
}

// Load reads the settings file of the Unity project at projectDir.
//
// Returns a CLIError with ExitSettingsNotFound if the file does not exist.
func Load(projectDir string) (*EditorSettings, error) {
	path := Path(projectDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitSettingsNotFound,
				fmt.Sprintf("MCP settings not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read MCP settings: %w", err)
	}

	var s EditorSettings
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return nil, fmt.Errorf("failed to parse MCP settings at %s: %w", path, err)
	}
	return &s, nil
}
