package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/onepost/notifier/internal/auth"
	"github.com/onepost/notifier/internal/dispatcher"
	"github.com/onepost/notifier/internal/gateway"
	"github.com/onepost/notifier/internal/handler"
	"github.com/onepost/notifier/internal/notification"
	"github.com/onepost/notifier/internal/persistence/memory"
	"github.com/onepost/notifier/internal/presence"
	"github.com/onepost/notifier/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "test-secret"
	testAPIKey = "test-api-key"
)

func userToken(t *testing.T, userId string) string {
	claims := jwt.MapClaims{
		"sub": userId,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
		"aud": "notifier",
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return token
}

func doRequest(t *testing.T, method string, url string, token string, body string) *http.Response {
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestRESTServer(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	registry := presence.NewInMemoryRegistry(logger)
	connectionGateway := gateway.NewGateway(logger, registry, 16)
	notificationDispatcher := dispatcher.NewDispatcher(logger, registry, connectionGateway)
	engine := memory.NewPersistenceEngine()
	authenticator := auth.NewAuthenticator(testSecret, "notifier", []string{testAPIKey})
	originChecker := NewOriginChecker([]string{"https://app.example.com"})

	restServer := NewRESTServer(
		logger,
		authenticator,
		originChecker,
		handler.NewNotifyHandler(logger, validator.New(), engine, notificationDispatcher),
		handler.NewNotificationsHandler(engine),
		handler.NewPresenceHandler(registry),
	)

	router := mux.NewRouter()
	restServer.Register(router)

	server := httptest.NewServer(router)
	defer server.Close()

	t.Run("healthz", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/healthz", "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("create notification for an offline user", func(t *testing.T) {
		body := `{"recipientId":"u1","actorId":"u2","actorName":"Alice","type":"like"}`

		resp := doRequest(t, http.MethodPost, server.URL+"/notifications", testAPIKey, body)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response handler.CreateNotificationResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
		assert.Equal(t, "Alice liked your post", response.Notification.Message)
		assert.Equal(t, dispatcher.Skipped(dispatcher.SkipReasonNotConnected), response.Delivery)
	})

	t.Run("create notification for a connected user", func(t *testing.T) {
		conn, err := connectionGateway.Connect()
		require.NoError(t, err)
		require.NoError(t, connectionGateway.Join(conn.Id, "u3"))
		defer connectionGateway.Disconnect(conn.Id)

		body := `{"recipientId":"u3","actorId":"u2","actorName":"Bob","type":"comment"}`

		resp := doRequest(t, http.MethodPost, server.URL+"/notifications", testAPIKey, body)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response handler.CreateNotificationResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
		assert.Equal(t, dispatcher.Delivered(), response.Delivery)

		frame := <-conn.Send
		assert.Equal(t, wire.EventNewNotification, frame.Event)

		var pushed notification.Notification
		require.NoError(t, frame.DecodePayload(&pushed))
		assert.Equal(t, response.Notification.Id, pushed.Id)
		assert.Equal(t, "Bob commented on your post", pushed.Message)
	})

	t.Run("self notification", func(t *testing.T) {
		body := `{"recipientId":"u1","actorId":"u1","type":"like"}`

		resp := doRequest(t, http.MethodPost, server.URL+"/notifications", testAPIKey, body)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, server.URL+"/notifications", testAPIKey, `{"recipientId":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doRequest(t, http.MethodPost, server.URL+"/notifications", testAPIKey,
			`{"recipientId":"u1","actorId":"u2","type":"share"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid api key", func(t *testing.T) {
		body := `{"recipientId":"u1","actorId":"u2","type":"like"}`

		resp := doRequest(t, http.MethodPost, server.URL+"/notifications", "invalid-api-key", body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = doRequest(t, http.MethodPost, server.URL+"/notifications", "", body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("user token cannot create notifications", func(t *testing.T) {
		body := `{"recipientId":"u1","actorId":"u2","type":"like"}`

		resp := doRequest(t, http.MethodPost, server.URL+"/notifications", userToken(t, "u2"), body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("list and mark read", func(t *testing.T) {
		token := userToken(t, "u1")

		resp := doRequest(t, http.MethodGet, server.URL+"/notifications", token, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var listed handler.ListNotificationsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
		require.Len(t, listed.Notifications, 1)
		assert.False(t, listed.Notifications[0].Read)

		resp = doRequest(t, http.MethodPost, server.URL+"/notifications/read", token, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var marked handler.MarkReadResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&marked))
		assert.True(t, marked.Success)
		assert.Equal(t, int64(1), marked.Updated)
	})

	t.Run("list requires a valid user token", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, server.URL+"/notifications", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("presence", func(t *testing.T) {
		conn, err := connectionGateway.Connect()
		require.NoError(t, err)
		require.NoError(t, connectionGateway.Join(conn.Id, "u5"))

		resp := doRequest(t, http.MethodGet, server.URL+"/presence/u5", testAPIKey, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var online handler.PresenceResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&online))
		assert.True(t, online.Online)

		connectionGateway.Disconnect(conn.Id)

		resp = doRequest(t, http.MethodGet, server.URL+"/presence/u5", testAPIKey, "")

		var offline handler.PresenceResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&offline))
		assert.False(t, offline.Online)

		resp = doRequest(t, http.MethodGet, server.URL+"/presence/u5", userToken(t, "u5"), "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, server.URL+"/notifications", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "https://app.example.com")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}
