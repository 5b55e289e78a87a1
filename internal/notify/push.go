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

// PushNotifier delivers web-push messages through a push relay. The
// subscription endpoint is the recipient handle, passed per call rather than
// held as shared state.
type PushNotifier struct {
	httpClient *http.Client
	publicKey  string
	privateKey string
	logger     *logger.Logger
}

// NewPushNotifier creates a web-push notifier with the given VAPID key pair
func NewPushNotifier(publicKey, privateKey string, log *logger.Logger) *PushNotifier {
	return &PushNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		publicKey:  publicKey,
		privateKey: privateKey,
		logger:     log,
	}
}

// Channel returns the reminder channel this notifier serves
func (n *PushNotifier) Channel() types.ReminderChannel {
	return types.ChannelPush
}

// Send posts one push message to a subscription endpoint
func (n *PushNotifier) Send(ctx context.Context, endpoint, message string) error {
	payload, err := json.Marshal(map[string]string{
		"title": "Med-Aid",
		"body":  message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "vapid k="+n.publicKey)
	req.Header.Set("TTL", "86400")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Notification("push", endpoint, false, err)
		monitoring.RecordNotification("push", "error")
		return fmt.Errorf("push send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
		n.logger.Notification("push", endpoint, false, err)
		monitoring.RecordNotification("push", "error")
		return err
	}

	n.logger.Notification("push", endpoint, true, nil)
	monitoring.RecordNotification("push", "sent")
	return nil
}
