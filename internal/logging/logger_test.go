package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("world", &buf, INFO)

	l.Debug("скрыто %d", 1)
	l.Info("чанк %d упрощён", 7)
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[INFO] [world] чанк 7 упрощён")
	assert.Contains(t, out, "[ERROR] [world] ошибка")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" warning "))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}

func TestLoggerManager_ComponentsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	lm := NewLoggerManager(&buf)

	storage := lm.Component("storage")
	assert.Same(t, storage, lm.Component("storage"), "логгер компонента должен переиспользоваться")
	lm.Component("api")
	assert.Equal(t, []string{"api", "storage"}, lm.Components())

	storage.Debug("до настройки")
	lm.Configure(DEBUG, false)
	storage.Debug("после настройки")
	assert.NotContains(t, buf.String(), "до настройки")
	assert.Contains(t, buf.String(), "[DEBUG] [storage] после настройки")

	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.Components())
}

func TestLoggerManager_FileOutput(t *testing.T) {
	LogDir = t.TempDir()
	t.Cleanup(func() { LogDir = "logs" })

	lm := NewLoggerManager(io.Discard)
	lm.Configure(INFO, true)
	lm.Component("world").Info("мир сгенерирован")
	require.NoError(t, lm.CloseAll())

	files, err := filepath.Glob(filepath.Join(LogDir, "world_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "мир сгенерирован")
}
