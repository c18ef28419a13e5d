package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Aggregate() and BuildReport()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Domains         map[string]Domain // group key → canonical order
	DropEmptyGroups bool              // omit domain values with no rows
	Logger          *zap.Logger
}

// WithDomain registers (or replaces) the canonical order for a group key.
func WithDomain(groupKey string, domain Domain) Option {
	return func(c *config) {
		c.Domains[groupKey] = domain
	}
}

// WithDropEmptyGroups omits domain values that have no rows instead of
// reporting them as Missing.
func WithDropEmptyGroups() Option {
	return func(c *config) {
		c.DropEmptyGroups = true
	}
}

// WithLogger routes engine debug logging to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Domains: defaultDomains(),
		Logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// withOption returns a copy of opts with extra appended, leaving the
// caller's slice untouched.
func withOption(opts []Option, extra ...Option) []Option {
	out := make([]Option, 0, len(opts)+len(extra))
	out = append(out, opts...)
	return append(out, extra...)
}
