package agentcore

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valro-hq/valro-api/internal/config"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(config.AgentConfig{RuntimeURL: url, TimeoutSeconds: 5}, slog.Default())
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("empty_runtime_url_fails", func(t *testing.T) {
		client, err := NewClient(config.AgentConfig{}, slog.Default())
		assert.Nil(t, client)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("valid_config_succeeds", func(t *testing.T) {
		client, err := NewClient(config.AgentConfig{RuntimeURL: "http://localhost:8090/invoke"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestInvokeAgent(t *testing.T) {
	t.Run("successful_turn", func(t *testing.T) {
		var calls int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&calls, 1)

			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Find me a landscaper in Charlotte", req["prompt"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"response": "Outreach sent to 1 vendor.",
				"vendors": [{
					"id": "vendor_1",
					"name": "Greenline Lawn",
					"email": "quotes@greenline.example.com",
					"service": "landscaping",
					"city": "Charlotte"
				}],
				"emails": [{
					"recipient": "quotes@greenline.example.com",
					"subject": "Quote request",
					"body": "Hello"
				}],
				"emails_sent": 1
			}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		result, err := client.InvokeAgent(context.Background(), "Find me a landscaper in Charlotte")
		require.NoError(t, err)
		assert.Equal(t, "Outreach sent to 1 vendor.", result.Response)
		require.Len(t, result.Vendors, 1)
		assert.Equal(t, "Greenline Lawn", result.Vendors[0].Name)
		require.Len(t, result.Emails, 1)
		assert.Equal(t, 1, result.EmailsSent)
		assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "exactly one call per turn")
	})

	t.Run("non_success_status_is_invocation_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "runtime exploded", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		result, err := client.InvokeAgent(context.Background(), "prompt")
		assert.Nil(t, result)
		require.ErrorIs(t, err, ErrAgentInvocation)
		assert.NotContains(t, err.Error(), "runtime exploded", "response body stays out of the error")
	})

	t.Run("malformed_response_is_invocation_error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"response": `))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		result, err := client.InvokeAgent(context.Background(), "prompt")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAgentInvocation)
	})

	t.Run("unreachable_runtime_is_invocation_error", func(t *testing.T) {
		client := newTestClient(t, "http://127.0.0.1:1/invoke")

		result, err := client.InvokeAgent(context.Background(), "prompt")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAgentInvocation)
	})

	t.Run("empty_prompt_is_rejected_without_call", func(t *testing.T) {
		var calls int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&calls, 1)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		result, err := client.InvokeAgent(context.Background(), "")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAgentInvocation)
		assert.Zero(t, atomic.LoadInt64(&calls))
	})

	t.Run("cancelled_context_aborts_call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := client.InvokeAgent(ctx, "prompt")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAgentInvocation)
	})
}
