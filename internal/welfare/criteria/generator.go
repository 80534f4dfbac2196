// Package criteria turns a UserProfile into FilterCriteria with a language
// model, falling back to rule-based criteria whenever the model cannot be
// used.
package criteria

import (
	"context"
	"log/slog"
	"time"

	"welfarehub/internal/welfare/metrics"
	"welfarehub/internal/welfare/models"
	"welfarehub/pkg/platform/circuit"
	"welfarehub/pkg/requestcontext"
)

type Config struct {
	Timeout        time.Duration
	MaxPromptBytes int
}

type Generator struct {
	completer Completer
	cache     Cache
	breaker   *circuit.Breaker
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
}

type Option func(*Generator)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

func WithCache(c Cache) Option {
	return func(g *Generator) { g.cache = c }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(g *Generator) { g.breaker = b }
}

func WithClock(clock func() time.Time) Option {
	return func(g *Generator) { g.clock = clock }
}

// New builds a Generator. A nil completer means every call is served from
// the fallback.
func New(completer Completer, cfg Config, opts ...Option) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.MaxPromptBytes <= 0 {
		cfg.MaxPromptBytes = 8192
	}
	g := &Generator{
		completer: completer,
		cfg:       cfg,
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.breaker == nil {
		g.breaker = circuit.New("llm",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(2),
			circuit.WithClock(g.clock),
		)
	}
	return g
}

// Generate never fails: any problem with the model yields fallback criteria.
func (g *Generator) Generate(ctx context.Context, p *models.UserProfile) models.FilterCriteria {
	fingerprint := p.Fingerprint()
	if cached := g.fromCache(ctx, fingerprint); cached != nil {
		return g.done(*cached)
	}
	if g.completer == nil {
		return g.done(Fallback(p))
	}
	if !g.breaker.Allow() {
		g.logger.WarnContext(ctx, "llm circuit open, using fallback criteria",
			"request_id", requestcontext.RequestID(ctx),
		)
		return g.done(Fallback(p))
	}

	c, err := g.ask(ctx, p)
	if err != nil {
		_, change := g.breaker.RecordFailure()
		if change.Opened {
			g.logger.WarnContext(ctx, "llm circuit opened")
		}
		g.logger.WarnContext(ctx, "criteria generation failed, using fallback",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", p.UserID.String(),
			"error", err,
		)
		return g.done(Fallback(p))
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "llm circuit closed")
	}

	c.Source = models.CriteriaSourceAI
	if g.cache != nil {
		if err := g.cache.Set(ctx, fingerprint, c); err != nil {
			g.logger.WarnContext(ctx, "failed to cache criteria", "error", err)
		}
	}
	return g.done(*c)
}

func (g *Generator) ask(ctx context.Context, p *models.UserProfile) (*models.FilterCriteria, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	prompt := BuildPrompt(p, g.cfg.MaxPromptBytes)
	start := g.clock()
	output, err := g.completer.Complete(ctx, prompt)
	g.metrics.ObserveLLMLatency(g.clock().Sub(start))
	if err != nil {
		return nil, err
	}
	return Parse(output)
}

func (g *Generator) fromCache(ctx context.Context, fingerprint string) *models.FilterCriteria {
	if g.cache == nil {
		return nil
	}
	c, err := g.cache.Get(ctx, fingerprint)
	if err != nil {
		g.logger.WarnContext(ctx, "criteria cache read failed", "error", err)
		return nil
	}
	if c != nil {
		c.Source = models.CriteriaSourceCache
	}
	return c
}

func (g *Generator) done(c models.FilterCriteria) models.FilterCriteria {
	g.metrics.IncrementCriteria(string(c.Source))
	return c
}
