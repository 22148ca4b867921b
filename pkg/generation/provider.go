package generation

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Error definitions
var (
	ErrNoProviderAvailable = errors.New("no generation provider available")
	ErrProviderNotFound    = errors.New("requested generation provider not found")
	ErrNotConfigured       = errors.New("generation provider not configured")
)

// Params holds the fixed generation parameters sent with every request
type Params struct {
	Temperature     float64
	MaxOutputTokens int
	TopP            float64
}

// DefaultParams returns the standard generation parameters
func DefaultParams() Params {
	return Params{
		Temperature:     0.7,
		MaxOutputTokens: 500,
		TopP:            0.9,
	}
}

// Provider defines the interface for remote text-generation backends.
// A Provider must distinguish transport/API failures (non-nil error)
// from empty-but-successful responses (empty string, nil error).
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends the prompt to the backend and returns the raw text
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

// Registry manages the available generation providers
type Registry struct {
	logger          *logrus.Logger
	providers       map[string]Provider
	defaultProvider string
}

// NewRegistry creates a provider registry
func NewRegistry(logger *logrus.Logger, defaultProvider string) *Registry {
	return &Registry{
		logger:          logger,
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
	}
}

// Register adds a generation provider
func (r *Registry) Register(provider Provider) {
	r.providers[provider.Name()] = provider
	r.logger.WithField("provider", provider.Name()).Info("Registered generation provider")
}

// Get returns a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	provider, exists := r.providers[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}

// Default returns the configured default provider, or the only registered
// provider when no default is set.
func (r *Registry) Default() (Provider, error) {
	if provider, err := r.Get(r.defaultProvider); err == nil {
		return provider, nil
	}
	if r.defaultProvider == "" && len(r.providers) == 1 {
		for _, provider := range r.providers {
			return provider, nil
		}
	}
	if len(r.providers) == 0 {
		return nil, ErrNoProviderAvailable
	}
	return nil, ErrProviderNotFound
}
