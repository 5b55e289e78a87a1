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

// WhatsAppNotifier delivers messages through a hosted WhatsApp gateway
type WhatsAppNotifier struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *logger.Logger
}

// NewWhatsAppNotifier creates a WhatsApp notifier for the configured gateway
func NewWhatsAppNotifier(endpoint, token string, log *logger.Logger) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		token:      token,
		logger:     log,
	}
}

// Channel returns the reminder channel this notifier serves
func (n *WhatsAppNotifier) Channel() types.ReminderChannel {
	return types.ChannelWhatsApp
}

// Send delivers one message to a WhatsApp number
func (n *WhatsAppNotifier) Send(ctx context.Context, number, message string) error {
	payload, err := json.Marshal(map[string]string{
		"to":   number,
		"body": message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Notification("whatsapp", number, false, err)
		monitoring.RecordNotification("whatsapp", "error")
		return fmt.Errorf("whatsapp send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
		n.logger.Notification("whatsapp", number, false, err)
		monitoring.RecordNotification("whatsapp", "error")
		return err
	}

	n.logger.Notification("whatsapp", number, true, nil)
	monitoring.RecordNotification("whatsapp", "sent")
	return nil
}
