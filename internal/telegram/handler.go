package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
)

const helpText = `<b>Доступные команды:</b>

/start - Приветствие
/help - Показать эту справку
/search запрос - Найти товары и цены

<b>Как использовать:</b>
Просто отправьте название товара, и я найду цены и фото.
Следующая страница выдачи: добавьте @N в конце, N - номер первого результата.

<b>Примеры:</b>
• iphone 16 pro max
• /search galaxy s24 @11`

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	h.bot.logger.Info("received message",
		zap.Int64("user_id", userID),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if !msg.IsCommand() {
		h.handleSearch(ctx, msg)
		return
	}

	switch msg.Command() {
	case "start":
		h.bot.Send(msg.Chat.ID, "Добро пожаловать! Отправьте название товара, и я найду цены.\n\nИспользуйте /help для просмотра доступных команд.")
	case "help":
		h.bot.Send(msg.Chat.ID, helpText)
	case "search":
		h.handleSearch(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Неизвестная команда. Используйте /help для справки.")
	}
}

func (h *Handler) handleSearch(ctx context.Context, msg *tgbotapi.Message) {
	query, start := ParseSearchCommand(msg.Text)
	if query == "" {
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(domain.ErrEmptyQuery))
		return
	}

	h.bot.SendTyping(msg.Chat.ID)

	ctx, cancel := context.WithTimeout(ctx, h.bot.timeout)
	defer cancel()

	results, err := h.bot.searcher.HandleSearch(ctx, query, start)
	if err != nil {
		h.bot.logger.Error("search failed",
			zap.Error(err),
			zap.String("query", query),
			zap.Int64("chat_id", msg.Chat.ID),
		)
		h.bot.Send(msg.Chat.ID, mapErrorToMessage(err))
		return
	}

	for _, m := range SplitMessage(FormatResults(query, results), maxMessageLen) {
		if err := h.bot.Send(msg.Chat.ID, m); err != nil {
			h.bot.logger.Error("failed to send message", zap.Error(err))
		}
	}
}

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return "Пустой запрос. Введите название товара."
	case errors.Is(err, domain.ErrQueryTooLong):
		return "Запрос слишком длинный. Максимум 1000 символов."
	case errors.Is(err, domain.ErrInvalidStart):
		return "Номер первого результата должен быть положительным."
	case errors.Is(err, domain.ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return "Поиск занял слишком много времени. Попробуйте позже."
	case errors.Is(err, domain.ErrSummarization):
		return "Не удалось разобрать найденные страницы. Попробуйте позже."
	default:
		return "Произошла ошибка. Попробуйте позже."
	}
}
