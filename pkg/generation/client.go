package generation

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"empathy-server/pkg/metrics"
)

// Source identifies where a reply's text came from
type Source string

const (
	// SourceModel marks text produced by the remote generation backend
	SourceModel Source = "llm"

	// SourceFallback marks canned text from the local responder
	SourceFallback Source = "fallback"
)

// Reply is a generated reply together with an explicit origin marker,
// so callers never have to infer degradation from the text itself.
type Reply struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// ClientConfig holds the client's pacing and retry policy
type ClientConfig struct {
	// MinInterval is the minimum elapsed time between outbound calls
	MinInterval time.Duration

	// MaxRetries is the attempt budget per Generate call
	MaxRetries int

	// BackoffBase is the exponent base for the wait between attempts
	BackoffBase float64

	// Params are the fixed generation parameters
	Params Params
}

// DefaultClientConfig returns the standard pacing and retry policy
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MinInterval: time.Second,
		MaxRetries:  3,
		BackoffBase: 2,
		Params:      DefaultParams(),
	}
}

// Health reports the outcome of a backend probe
type Health struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason"`
}

// healthProbePrompt is the trivial prompt used by HealthCheck
const healthProbePrompt = "Hello"

// Client wraps a generation provider with a shared rate gate, bounded
// retry with exponential backoff, and a deterministic local fallback.
// Generate never fails: when the backend is unconfigured, unreachable or
// keeps returning empty text, the reply comes from the fallback responder
// with Source set accordingly.
type Client struct {
	logger   *logrus.Logger
	provider Provider // nil when unconfigured
	fallback *Responder
	config   ClientConfig

	// gateMu serializes outbound calls; lastRequest is the single shared
	// pacing point across all calls from this client instance.
	gateMu      sync.Mutex
	lastRequest time.Time

	sleep func(time.Duration)
}

// NewClient creates a generation client. A nil provider is valid and
// produces a client that only ever answers from the fallback responder.
func NewClient(logger *logrus.Logger, provider Provider, fallback *Responder, config ClientConfig) *Client {
	if fallback == nil {
		fallback = NewResponder()
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = DefaultClientConfig().MaxRetries
	}
	if config.BackoffBase < 1 {
		config.BackoffBase = DefaultClientConfig().BackoffBase
	}
	if config.Params.MaxOutputTokens <= 0 {
		config.Params = DefaultParams()
	}

	return &Client{
		logger:   logger,
		provider: provider,
		fallback: fallback,
		config:   config,
		sleep:    time.Sleep,
	}
}

// Configured reports whether a remote backend is available
func (c *Client) Configured() bool {
	return c.provider != nil
}

// Generate produces a reply for the prompt using the configured retry
// budget and temperature.
func (c *Client) Generate(ctx context.Context, prompt string) Reply {
	return c.generate(ctx, prompt, c.config.MaxRetries, c.config.Params.Temperature)
}

// GenerateWithOptions produces a reply with an explicit retry budget and
// temperature, overriding the configured policy for this call only.
func (c *Client) GenerateWithOptions(ctx context.Context, prompt string, maxRetries int, temperature float64) Reply {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return c.generate(ctx, prompt, maxRetries, temperature)
}

func (c *Client) generate(ctx context.Context, prompt string, maxRetries int, temperature float64) Reply {
	if c.provider == nil {
		metrics.RecordFallbackResponse("generation")
		return Reply{Text: c.fallback.Respond(prompt), Source: SourceFallback}
	}

	c.enforceRateGate()

	params := c.config.Params
	params.Temperature = temperature

	for attempt := 0; attempt < maxRetries; attempt++ {
		start := time.Now()
		text, err := c.provider.Generate(ctx, prompt, params)
		metrics.ObserveGenerationLatency(c.provider.Name(), time.Since(start))

		if err != nil {
			metrics.RecordGenerationAttempt(c.provider.Name(), "error")
			c.logger.WithError(err).WithFields(logrus.Fields{
				"provider": c.provider.Name(),
				"attempt":  attempt + 1,
			}).Error("Generation attempt failed")
		} else if strings.TrimSpace(text) == "" {
			metrics.RecordGenerationAttempt(c.provider.Name(), "empty")
			c.logger.WithFields(logrus.Fields{
				"provider": c.provider.Name(),
				"attempt":  attempt + 1,
			}).Warn("Empty response from generation backend")
		} else {
			metrics.RecordGenerationAttempt(c.provider.Name(), "success")
			return Reply{Text: strings.TrimSpace(text), Source: SourceModel}
		}

		if attempt < maxRetries-1 {
			c.sleep(c.backoff(attempt))
		}
	}

	metrics.RecordFallbackResponse("generation")
	return Reply{Text: c.fallback.Respond(prompt), Source: SourceFallback}
}

// enforceRateGate blocks until at least MinInterval has elapsed since
// the previous outbound call. The gate is held for the duration of the
// wait so concurrent callers queue up behind it.
func (c *Client) enforceRateGate() {
	if c.config.MinInterval <= 0 {
		return
	}

	c.gateMu.Lock()
	defer c.gateMu.Unlock()

	if !c.lastRequest.IsZero() {
		if elapsed := time.Since(c.lastRequest); elapsed < c.config.MinInterval {
			c.sleep(c.config.MinInterval - elapsed)
		}
	}
	c.lastRequest = time.Now()
}

// backoff returns the wait before the next attempt: base^attempt seconds
func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(c.config.BackoffBase, float64(attempt)) * float64(time.Second))
}

// HealthCheck probes the backend with a trivial prompt and a single
// attempt. The backend counts as available only when it produced real
// model output; a fallback reply means the probe never reached it.
func (c *Client) HealthCheck(ctx context.Context) Health {
	if c.provider == nil {
		return Health{Available: false, Reason: "generation backend not configured"}
	}

	reply := c.GenerateWithOptions(ctx, healthProbePrompt, 1, c.config.Params.Temperature)
	if reply.Text != "" && reply.Source == SourceModel {
		return Health{Available: true, Reason: "backend responding"}
	}
	return Health{Available: false, Reason: "backend not responding properly"}
}
