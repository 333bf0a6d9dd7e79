// Package aigateway calls the configured AI chat providers to generate study
// content. The gateway reads provider settings from the document store on
// every call, enforces a per-provider cooldown and shields each upstream
// behind its own circuit breaker.
package aigateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/pkg/circuitbreaker"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// systemPrompt frames every generation request as exam-prep tutoring.
const systemPrompt = "Você é um tutor de inglês especializado em preparar estudantes " +
	"brasileiros para as provas de inglês do ENEM e do vestibular da UFPR. " +
	"Responda de forma clara e didática, em português quando explicar e em " +
	"inglês quando exemplificar."

// Options tunes a generation request.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// DefaultOptions returns the generation defaults.
func DefaultOptions() Options {
	return Options{MaxTokens: 1024, Temperature: 0.7}
}

// SettingsSource supplies the current provider settings. The store's Settings
// method satisfies it directly.
type SettingsSource func() docstore.Settings

// Unsealer decrypts a stored API key. Plaintext keys pass through unchanged.
type Unsealer func(string) (string, error)

// Config configures the gateway.
type Config struct {
	Settings SettingsSource
	Unseal   Unsealer
	Logger   *logger.Logger

	// HTTPClient is shared by all provider clients.
	HTTPClient *http.Client

	// Cooldown is the minimum gap between calls to the same provider.
	// Zero means the 5 second default.
	Cooldown time.Duration

	// Clock overrides the time source. Used by tests.
	Clock func() time.Time

	// Base URL overrides for tests. Empty means the real endpoint.
	OpenAIBaseURL     string
	AnthropicBaseURL  string
	GoogleBaseURL     string
	PerplexityBaseURL string
}

// Gateway routes generation requests to the selected provider.
type Gateway struct {
	settings  SettingsSource
	unseal    Unsealer
	log       *logger.Logger
	cooldown  *cooldownGate
	providers map[string]provider
	breakers  map[string]*circuitbreaker.Breaker
}

// New creates a gateway.
func New(cfg Config) *Gateway {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Unseal == nil {
		cfg.Unseal = func(s string) (string, error) { return s, nil }
	}

	providers := map[string]provider{
		ProviderOpenAI:     newOpenAIClient(cfg.HTTPClient, cfg.OpenAIBaseURL),
		ProviderAnthropic:  newAnthropicClient(cfg.HTTPClient, cfg.AnthropicBaseURL),
		ProviderGoogle:     newGoogleClient(cfg.HTTPClient, cfg.GoogleBaseURL),
		ProviderPerplexity: newPerplexityClient(cfg.HTTPClient, cfg.PerplexityBaseURL),
	}

	log := cfg.Logger.With(logger.Component("aigateway"))
	breakers := make(map[string]*circuitbreaker.Breaker, len(providers))
	for name := range providers {
		breakers[name] = circuitbreaker.New(circuitbreaker.Config{
			Name: "ai-" + name,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warn("provider circuit state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			},
		})
	}

	return &Gateway{
		settings:  cfg.Settings,
		unseal:    cfg.Unseal,
		log:       log,
		cooldown:  newCooldownGate(cfg.Cooldown, cfg.Clock),
		providers: providers,
		breakers:  breakers,
	}
}

// Providers lists the known provider names with their current configuration
// state, for the settings UI.
func (g *Gateway) Providers() map[string]bool {
	settings := g.settings()
	out := make(map[string]bool, len(g.providers))
	for name := range g.providers {
		ps, ok := settings.Providers[name]
		out[name] = ok && ps.Enabled && ps.APIKey != ""
	}
	return out
}

// Generate produces tutoring content using the named provider, or the
// configured default when name is empty.
func (g *Gateway) Generate(ctx context.Context, name, prompt string, opts Options) (string, error) {
	settings := g.settings()
	if name == "" {
		name = settings.DefaultProvider
	}

	client, ok := g.providers[name]
	if !ok {
		return "", shared.NewDomainError("gateway", "Generate", shared.ErrProviderNotConfigured,
			fmt.Sprintf("unknown provider %q", name))
	}

	ps, ok := settings.Providers[name]
	if !ok || !ps.Enabled || ps.APIKey == "" {
		return "", shared.NewDomainError("gateway", "Generate", shared.ErrProviderNotConfigured,
			fmt.Sprintf("provider %q is not configured", name))
	}

	if wait, ok := g.cooldown.allow(name); !ok {
		return "", shared.NewDomainError("gateway", "Generate", shared.ErrRateLimited,
			fmt.Sprintf("provider %q on cooldown for %s", name, wait.Round(time.Millisecond)))
	}

	apiKey, err := g.unseal(ps.APIKey)
	if err != nil {
		return "", shared.WrapError("gateway", "Generate", shared.ErrProviderNotConfigured,
			"unseal api key", err)
	}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultOptions().MaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultOptions().Temperature
	}

	var out string
	err = g.breakers[name].Execute(ctx, func(ctx context.Context) error {
		var genErr error
		out, genErr = client.generate(ctx, apiKey, ps.Model, systemPrompt, prompt, opts)
		return genErr
	})
	if err != nil {
		g.log.Warn("generation failed",
			logger.Provider(name),
			logger.Err(err))
		return "", shared.WrapError("gateway", "Generate", shared.ErrProviderRequest,
			fmt.Sprintf("provider %q", name), err)
	}

	g.log.Info("generation completed",
		logger.Provider(name),
		logger.String("model", ps.Model),
		logger.Int("response_chars", len(out)))
	return out, nil
}
