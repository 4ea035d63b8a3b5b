package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tmarchand/socialpulse/internal/models"
)

// Dashboard is what the bot needs from the pipeline to answer commands.
type Dashboard interface {
	DatasetSize() int
	LabelCounts() map[models.SentimentLabel]int
	GeneratePost(ctx context.Context) string
}

// Bot publishes generated trend posts to a chat and answers a small
// command set over long polling.
type Bot struct {
	api       *tgbotapi.BotAPI
	chatID    int64
	dashboard Dashboard
	logger    *slog.Logger
}

func NewBot(token string, chatID int64, dashboard Dashboard, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{api: api, chatID: chatID, dashboard: dashboard, logger: logger}, nil
}

// Start begins consuming updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				b.handleUpdate(ctx, update)
			}
		}
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text := update.Message.Text

	switch {
	case strings.HasPrefix(text, "/start"):
		b.sendMessage(chatID, welcomeMessage)
	case strings.HasPrefix(text, "/trend"):
		b.sendMessage(chatID, b.dashboard.GeneratePost(ctx))
	case strings.HasPrefix(text, "/stats"):
		b.sendMessage(chatID, b.formatStats())
	case strings.HasPrefix(text, "/help"):
		b.sendMessage(chatID, helpMessage)
	default:
		b.sendMessage(chatID, "Commande inconnue. Essayez /help.")
	}
}

const welcomeMessage = `Bienvenue sur SocialPulse 📊

Je surveille les réseaux, j'analyse le sentiment des posts et je génère des tendances.

Commandes:
/trend - Générer un post tendance
/stats - Taille du jeu de données et répartition des sentiments
/help - Afficher cette aide`

const helpMessage = `SocialPulse - aide 📖

/trend - Générer un post à partir du mot le plus fréquent
/stats - Statistiques du jeu de données
/start - Message de bienvenue`

func (b *Bot) formatStats() string {
	counts := b.dashboard.LabelCounts()

	var sb strings.Builder
	fmt.Fprintf(&sb, "📄 %d posts collectés\n", b.dashboard.DatasetSize())
	for _, label := range []models.SentimentLabel{
		models.LabelPositive, models.LabelNegative, models.LabelNeutral, models.LabelError,
	} {
		if n, ok := counts[label]; ok {
			fmt.Fprintf(&sb, "%s: %d\n", label, n)
		}
	}
	return strings.TrimSpace(sb.String())
}

// PublishPost sends a generated post to the configured chat.
func (b *Bot) PublishPost(ctx context.Context, text string) error {
	if b.chatID == 0 {
		return fmt.Errorf("%w: telegram chat id", models.ErrConfigMissing)
	}
	b.sendMessage(b.chatID, "📣 "+text)
	return nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("telegram send failed", "error", err)
	}
}
