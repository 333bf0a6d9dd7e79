package aigateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
)

func testSettings(provider, key string) SettingsSource {
	return func() docstore.Settings {
		providers := docstore.DefaultProviders()
		ps := providers[provider]
		ps.APIKey = key
		ps.Enabled = true
		providers[provider] = ps
		return docstore.Settings{
			Providers:       providers,
			DefaultProvider: provider,
		}
	}
}

func TestGenerate_OpenAI(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hello, student!"}}]}`))
	}))
	defer srv.Close()

	g := New(Config{
		Settings:      testSettings(ProviderOpenAI, "sk-test"),
		OpenAIBaseURL: srv.URL,
	})

	out, err := g.Generate(context.Background(), "", "Explain present perfect", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello, student!", out)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "Explain present perfect", gotReq.Messages[1].Content)
}

func TestGenerate_Anthropic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{"content":[{"text":"Resposta"}]}`))
	}))
	defer srv.Close()

	g := New(Config{
		Settings:         testSettings(ProviderAnthropic, "sk-ant"),
		AnthropicBaseURL: srv.URL,
	})

	out, err := g.Generate(context.Background(), ProviderAnthropic, "Oi", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Resposta", out)
}

func TestGenerate_Google(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-pro:generateContent", r.URL.Path)
		require.Equal(t, "g-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Olá"}]}}]}`))
	}))
	defer srv.Close()

	g := New(Config{
		Settings:      testSettings(ProviderGoogle, "g-key"),
		GoogleBaseURL: srv.URL,
	})

	out, err := g.Generate(context.Background(), ProviderGoogle, "Oi", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Olá", out)
}

func TestGenerate_CooldownBlocksThenClears(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	g := New(Config{
		Settings:      testSettings(ProviderOpenAI, "sk-test"),
		OpenAIBaseURL: srv.URL,
		Clock:         func() time.Time { return now },
	})

	_, err := g.Generate(context.Background(), "", "first", Options{})
	require.NoError(t, err)

	// Immediately again: blocked, and the upstream is never touched.
	_, err = g.Generate(context.Background(), "", "second", Options{})
	assert.ErrorIs(t, err, shared.ErrRateLimited)
	assert.Equal(t, 1, calls)

	now = now.Add(5 * time.Second)
	_, err = g.Generate(context.Background(), "", "third", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGenerate_CooldownStampsFailedCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	g := New(Config{
		Settings:      testSettings(ProviderOpenAI, "sk-test"),
		OpenAIBaseURL: srv.URL,
		Clock:         func() time.Time { return now },
	})

	_, err := g.Generate(context.Background(), "", "first", Options{})
	assert.ErrorIs(t, err, shared.ErrProviderRequest)

	// The failed call still started the cooldown.
	_, err = g.Generate(context.Background(), "", "second", Options{})
	assert.ErrorIs(t, err, shared.ErrRateLimited)
}

func TestGenerate_NotConfigured(t *testing.T) {
	g := New(Config{
		Settings: func() docstore.Settings {
			return docstore.Settings{
				Providers:       docstore.DefaultProviders(),
				DefaultProvider: "openai",
			}
		},
	})

	// Known provider, but disabled and keyless.
	_, err := g.Generate(context.Background(), ProviderOpenAI, "Oi", Options{})
	assert.ErrorIs(t, err, shared.ErrProviderNotConfigured)

	_, err = g.Generate(context.Background(), "unknown", "Oi", Options{})
	assert.ErrorIs(t, err, shared.ErrProviderNotConfigured)
}

func TestGenerate_UnsealsStoredKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	g := New(Config{
		Settings:      testSettings(ProviderOpenAI, "sealed:abc"),
		OpenAIBaseURL: srv.URL,
		Unseal: func(s string) (string, error) {
			require.Equal(t, "sealed:abc", s)
			return "sk-plain", nil
		},
	})

	_, err := g.Generate(context.Background(), "", "Oi", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-plain", gotAuth)
}
