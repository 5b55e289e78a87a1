// Package notify implements the delivery channels for dose reminders and
// appointment notifications. Every sender is stateless between calls; the
// recipient handle is passed explicitly so concurrent requests never share
// subscription state.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/monitoring"
	"github.com/medaid/platform/pkg/types"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers messages through the Telegram Bot API
type TelegramNotifier struct {
	httpClient *http.Client
	apiBase    string
	token      string
	logger     *logger.Logger
}

// NewTelegramNotifier creates a Telegram notifier with the given bot token
func NewTelegramNotifier(token string, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBase:    telegramAPIBase,
		token:      token,
		logger:     log,
	}
}

// Channel returns the reminder channel this notifier serves
func (n *TelegramNotifier) Channel() types.ReminderChannel {
	return types.ChannelTelegram
}

// Send delivers one message to a Telegram chat ID
func (n *TelegramNotifier) Send(ctx context.Context, chatID, message string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode telegram payload: %w", err)
	}

	target := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Notification("telegram", chatID, false, err)
		monitoring.RecordNotification("telegram", "error")
		return fmt.Errorf("telegram send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("telegram returned status %d", resp.StatusCode)
		n.logger.Notification("telegram", chatID, false, err)
		monitoring.RecordNotification("telegram", "error")
		return err
	}

	n.logger.Notification("telegram", chatID, true, nil)
	monitoring.RecordNotification("telegram", "sent")
	return nil
}
