package handler

import (
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-unibans/internal/logger"
)

// SetupHandlers routes bot updates to h
func SetupHandlers(bh *th.BotHandler, bot *telego.Bot, h *Handler) {
	bh.HandleMessage(func(ctx *th.Context, message telego.Message) error {
		return h.OnMessage(ctx.Context(), message)
	})

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return h.OnChatMember(ctx.Context(), *update.ChatMember)
	}, th.AnyChatMember())

	bh.Handle(func(ctx *th.Context, update telego.Update) error {
		return h.OnMyChatMember(ctx.Context(), *update.MyChatMember)
	}, th.AnyMyChatMember())

	bh.HandleCallbackQuery(func(ctx *th.Context, query telego.CallbackQuery) error {
		text := h.OnCallback(ctx.Context(), query)
		err := bot.AnswerCallbackQuery(ctx.Context(), &telego.AnswerCallbackQueryParams{
			CallbackQueryID: query.ID,
			Text:            text,
		})
		if err != nil {
			logger.Warningf("Error answering callback query %s: %v", query.ID, err)
		}
		return nil
	})
}
