package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a scratch directory so a developer's .env is not picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, "whisper-1", cfg.OpenAI.STTModel)
	assert.Equal(t, "tts-1", cfg.OpenAI.TTSModel)
	assert.Equal(t, "onyx", cfg.OpenAI.Voice)
	assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	assert.Empty(t, cfg.Assistant.SystemPrompt)
	assert.Zero(t, cfg.OpenAI.Temperature)
	assert.Equal(t, 1, cfg.Assistant.MaxToolRounds)
	assert.False(t, cfg.Assistant.DispatchAll)
	assert.Equal(t, "out", cfg.Assistant.OutDir)
	assert.Equal(t, ":7860", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.HasAPIKey())
}

func TestLoadPrecedence(t *testing.T) {
	dir := chdir(t)

	yaml := []byte(`
openai:
  chat_model: gpt-4o
  voice: alloy
assistant:
  max_tool_rounds: 3
server:
  addr: ":9000"
`)
	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(path, yaml, 0644))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRAVEL_AGENT_OPENAI_VOICE", "nova")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":7860", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":8080"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel, "file overrides default")
	assert.Equal(t, "nova", cfg.OpenAI.Voice, "env overrides file")
	assert.Equal(t, ":8080", cfg.Server.Addr, "flag overrides file")
	assert.Equal(t, 3, cfg.Assistant.MaxToolRounds)
	assert.True(t, cfg.HasAPIKey())
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	t.Setenv("OPENAI_API_KEY", "")
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=sk-from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("OPENAI_API_KEY") })

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-dotenv", cfg.OpenAI.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t)
	_, err := Load("does-not-exist.yaml", nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		OpenAI:    OpenAIConfig{ChatModel: "gpt-4o-mini"},
		Assistant: AssistantConfig{MaxToolRounds: 1, OutDir: "out"},
	}
	require.NoError(t, base.Validate())

	noModel := base
	noModel.OpenAI.ChatModel = ""
	assert.Error(t, noModel.Validate())

	noRounds := base
	noRounds.Assistant.MaxToolRounds = 0
	assert.Error(t, noRounds.Validate())

	negRetries := base
	negRetries.OpenAI.MaxRetries = -1
	assert.Error(t, negRetries.Validate())
}
