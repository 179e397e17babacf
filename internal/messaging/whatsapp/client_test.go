package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-growth-platform/internal/httpx"
)

func TestSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		var msg textMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "56912345678", msg.To)
		assert.Equal(t, "whatsapp", msg.MessagingProduct)
		assert.Equal(t, "Hola Ana", msg.Text.Body)
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.ABC"}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL:       srv.URL + "/",
		AccessToken:   "token",
		PhoneNumberID: "12345",
		HTTPClient:    httpx.NewClient(httpx.Config{MaxRetries: -1}),
	})
	require.NoError(t, err)

	id, err := client.SendText(context.Background(), "+56 9 1234 5678", "Hola Ana")
	require.NoError(t, err)
	assert.Equal(t, "wamid.ABC", id)
}

func TestSendTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid token"}}`))
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, AccessToken: "bad", PhoneNumberID: "1"})
	require.NoError(t, err)
	_, err = client.SendText(context.Background(), "56911111111", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{PhoneNumberID: "1"})
	assert.Error(t, err)
	_, err = New(Config{AccessToken: "t"})
	assert.Error(t, err)

	client, err := New(Config{AccessToken: "t", PhoneNumberID: "1"})
	require.NoError(t, err)
	_, err = client.SendText(context.Background(), "", "hola")
	assert.Error(t, err)
	_, err = client.SendText(context.Background(), "569", " ")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "56912345678", NormalizePhone("+56 (9) 1234-5678"))
	assert.Equal(t, "", NormalizePhone("n/a"))
}
