package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-unibans/internal/commands"
	"tg-unibans/internal/config"
	"tg-unibans/internal/logger"
)

// allowedUpdates are the update kinds the handlers consume; chat_member
// must be requested explicitly
var allowedUpdates = []string{"message", "chat_member", "my_chat_member", "callback_query"}

// BotService represents the Telegram bot service
type BotService struct {
	Bot     *telego.Bot
	Handler *th.BotHandler
	// Server is nil when updates arrive through long polling
	Server *WebhookServer
}

// Start runs the bot handler until Stop is called
func (b *BotService) Start() {
	b.Handler.Start()
}

// Stop stops the bot handler
func (b *BotService) Stop() {
	b.Handler.Stop()
}

// NewBot creates the telego client and checks the token
func NewBot(ctx context.Context, cfg *config.Config) (*telego.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	var opts []telego.BotOption
	if logger.Enabled(logger.LevelDebug) {
		opts = append(opts, telego.WithDefaultDebugLogger())
	}
	bot, err := telego.NewBot(cfg.Bot.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	botUser, err := bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	logger.Infof("Authorized on account %s", botUser.Username)
	return bot, nil
}

// Initialize subscribes to updates through the configured webhook, or
// through long polling when no endpoint is set
func Initialize(ctx context.Context, bot *telego.Bot, cfg *config.Config) (*BotService, error) {
	if err := bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return nil, fmt.Errorf("failed to delete existing webhook: %w", err)
	}

	wh := cfg.Bot.Webhook
	if wh.Endpoint == "" {
		logger.Infof("No webhook endpoint configured, using long polling")
		updates, err := bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
			AllowedUpdates: allowedUpdates,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start long polling: %w", err)
		}
		bh, err := th.NewBotHandler(bot, updates)
		if err != nil {
			return nil, fmt.Errorf("failed to create bot handler: %w", err)
		}
		return &BotService{Bot: bot, Handler: bh}, nil
	}

	bh, server, err := SetupWebhook(ctx, bot, wh, webhookSecret(cfg.Bot.Token))
	if err != nil {
		return nil, fmt.Errorf("failed to setup webhook: %w", err)
	}
	return &BotService{Bot: bot, Handler: bh, Server: server}, nil
}

// SetCommands publishes the command menu
func SetCommands(ctx context.Context, bot *telego.Bot, cmds []*commands.Command) {
	menu := make([]telego.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		menu = append(menu, telego.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}

	err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: menu})
	if err != nil {
		logger.Warningf("Failed to set bot commands: %v", err)
	}
}

// webhookSecret derives a stable secret token from the bot token
func webhookSecret(token string) string {
	if len(token) > 6 {
		token = token[len(token)-6:]
	}
	return "secure_webhook_token_" + strings.NewReplacer(":", "_").Replace(token)
}
