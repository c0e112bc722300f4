package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/portblock/internal/model"
)

// writeSettings creates a fake Unity project with the given settings body.
func writeSettings(t *testing.T, body string) string {
	t.Helper()
	project := t.TempDir()
	dir := filepath.Join(project, "UserSettings")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "UnityMcpSettings.json"), []byte(body), 0o644))
	return project
}

func TestLoad_CustomPort(t *testing.T) {
	project := writeSettings(t, `{"customPort": 8750, "autoStartServer": true, "enableMcpLogs": false}`)

	s, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, 8750, s.CustomPort)
	assert.True(t, s.AutoStartServer)
	assert.Equal(t, 8750, s.Port())
}

// TestLoad_JSONC verifies hand-edited files with comments and trailing
// commas still parse.
func TestLoad_JSONC(t *testing.T) {
	project := writeSettings(t, `{
  // moved off the default while another project runs
  "customPort": 7400,
  /* "customPort": 7500, */
  "autoStartServer": false,
}`)

	s, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, 7400, s.Port())
}

func TestLoad_MissingPortUsesDefault(t *testing.T) {
	project := writeSettings(t, `{"autoStartServer": true}`)

	s, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPort, s.Port())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitSettingsNotFound, cliErr.Code)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_Malformed(t *testing.T) {
	project := writeSettings(t, `{"customPort": "eighty"}`)

	_, err := Load(project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("proj", "UserSettings", "UnityMcpSettings.json"), Path("proj"))
}

// TestEditorSettings_Advisories checks the auto-start warning names the port
// and is absent when the server is started by hand.
func TestEditorSettings_Advisories(t *testing.T) {
	auto := &EditorSettings{CustomPort: 8750, AutoStartServer: true}
	adv := auto.Advisories()
	require.Len(t, adv, 1)
	assert.Contains(t, adv[0], "autoStartServer")
	assert.Contains(t, adv[0], "8750")

	manual := &EditorSettings{CustomPort: 8750}
	assert.Empty(t, manual.Advisories())
}
