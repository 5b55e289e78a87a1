package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("test-token", logger.New("error"))
	n.apiBase = srv.URL

	err := n.Send(context.Background(), "12345", "Time to take Paracetamol 500")
	require.NoError(t, err)
	assert.Equal(t, "12345", got["chat_id"])
	assert.Equal(t, "Time to take Paracetamol 500", got["text"])
	assert.Equal(t, types.ChannelTelegram, n.Channel())
}

func TestTelegramNotifier_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("bad-token", logger.New("error"))
	n.apiBase = srv.URL

	err := n.Send(context.Background(), "12345", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWhatsAppNotifier_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))

		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "+911234567890", got["to"])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWhatsAppNotifier(srv.URL, "wa-token", logger.New("error"))
	require.NoError(t, n.Send(context.Background(), "+911234567890", "Reminder"))
	assert.Equal(t, types.ChannelWhatsApp, n.Channel())
}

func TestPushNotifier_SendToSubscriptionEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "86400", r.Header.Get("TTL"))

		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Dose due", got["body"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewPushNotifier("pub", "priv", logger.New("error"))
	require.NoError(t, n.Send(context.Background(), srv.URL, "Dose due"))
	assert.Equal(t, types.ChannelPush, n.Channel())
}
