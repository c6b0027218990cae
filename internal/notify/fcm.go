// Package notify pushes lifecycle notifications to riders and drivers.
// Delivery is best-effort: callers log failures and move on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// FCMSender posts notification messages to the FCM HTTP v1 endpoint.
type FCMSender struct {
	endpoint string
	key      string
	client   *http.Client
}

func NewFCMSender(endpoint, key string) *FCMSender {
	return &FCMSender{
		endpoint: endpoint,
		key:      key,
		client:   &http.Client{Timeout: 3 * time.Second},
	}
}

func (f *FCMSender) Send(ctx context.Context, token, title, body string) error {
	if token == "" {
		// User never registered a device; nothing to deliver to.
		return nil
	}

	msg := map[string]interface{}{
		"message": map[string]interface{}{
			"token": token,
			"notification": map[string]string{
				"title": title,
				"body":  body,
			},
		},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.key != "" {
		req.Header.Set("Authorization", "Bearer "+f.key)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}
	return nil
}
