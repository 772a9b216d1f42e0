package bot

import (
	"errors"
	"regexp"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-unibans/internal/config"
)

func TestWebhookSecret(t *testing.T) {
	valid := regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

	secret := webhookSecret("123456:ABC-DEF1234ghIkl")
	assert.Equal(t, "secure_webhook_token_4ghIkl", secret)
	assert.Regexp(t, valid, secret)

	short := webhookSecret("1:a")
	assert.Equal(t, "secure_webhook_token_1_a", short)
	assert.Regexp(t, valid, short)
}

func TestAllowedUpdatesIncludeChatMember(t *testing.T) {
	assert.Contains(t, allowedUpdates, "chat_member")
	assert.Contains(t, allowedUpdates, "my_chat_member")
	assert.Contains(t, allowedUpdates, "callback_query")
}

func TestWebhookPath(t *testing.T) {
	path, err := webhookPath(config.WebhookConfig{Endpoint: "https://bot.example.org/tg/hook"})
	require.NoError(t, err)
	assert.Equal(t, "/tg/hook", path)

	path, err = webhookPath(config.WebhookConfig{Endpoint: "https://bot.example.org"})
	require.NoError(t, err)
	assert.Equal(t, defaultWebhookPath, path)

	path, err = webhookPath(config.WebhookConfig{Endpoint: "http://bot.example.org/hook", CertFile: "c.pem", KeyFile: "k.pem"})
	require.NoError(t, err)
	assert.Equal(t, "/hook", path)

	_, err = webhookPath(config.WebhookConfig{Endpoint: "http://bot.example.org/hook"})
	assert.ErrorContains(t, err, "HTTPS configuration required")
}

func TestDebugStatus(t *testing.T) {
	out := debugStatus("UniBansBot", "https://bot.example.org/hook", &telego.WebhookInfo{
		URL:                "https://bot.example.org/hook",
		PendingUpdateCount: 4,
		LastErrorDate:      1700000000,
		LastErrorMessage:   "Connection refused",
	}, nil)
	assert.Contains(t, out, "Bot username: UniBansBot")
	assert.Contains(t, out, "Pending Updates: 4")
	assert.Contains(t, out, "Last Error: [2023-11-14 22:13:20] Connection refused")

	out = debugStatus("", "https://bot.example.org/hook", nil, errors.New("timeout"))
	assert.NotContains(t, out, "Bot username")
	assert.Contains(t, out, "Error getting webhook info: timeout")
}
