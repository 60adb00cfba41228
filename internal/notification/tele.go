package notification

import (
	"math/big"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// telegram rejects messages above 4096 characters
const maxMessageLength = 4096

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts operator alerts to a Telegram group
type TelegramNotifier struct {
	botToken string
	chatID   int64
	logger   *zap.Logger

	mu     sync.Mutex
	sender messageSender
}

// NewTelegramNotifier creates a notifier for the given bot and group.
// The bot is authorized on the first message.
func NewTelegramNotifier(botToken, group string, logger *zap.Logger) (*TelegramNotifier, error) {
	if botToken == "" || group == "" {
		return nil, errors.New("telegram bot token or message group is not set")
	}

	chatID, ok := big.NewInt(0).SetString(strings.TrimSpace(group), 10)
	if !ok || !chatID.IsInt64() {
		return nil, errors.New("chatID is not valid")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID.Int64(),
		logger:   logger,
	}, nil
}

// Notify sends msg to the configured group
func (n *TelegramNotifier) Notify(msg string) error {
	sender, err := n.bot()
	if err != nil {
		return err
	}

	if len(msg) > maxMessageLength {
		msg = msg[:maxMessageLength-3] + "..."
	}

	_, err = sender.Send(tgbotapi.NewMessage(n.chatID, msg))
	return err
}

func (n *TelegramNotifier) bot() (messageSender, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sender != nil {
		return n.sender, nil
	}

	bot, err := tgbotapi.NewBotAPI(n.botToken)
	if err != nil {
		return nil, err
	}
	n.logger.Info("Authorized on telegram account", zap.String("account", bot.Self.UserName))

	n.sender = bot
	return bot, nil
}
