package config

import (
	"sync/atomic"
	"time"
)

// Resolver computes effective toast settings from a per-call override,
// the process-wide configuration and the hardcoded fallbacks, in that
// order. The configuration can be swapped at runtime; readers always see
// a consistent snapshot.
type Resolver struct {
	cfg atomic.Pointer[ToastConfig]
}

// NewResolver creates a Resolver. A nil cfg resolves everything to the
// fallbacks.
func NewResolver(cfg *ToastConfig) *Resolver {
	r := &Resolver{}
	r.Update(cfg)
	return r
}

// Update replaces the configuration. Timers already scheduled under the
// previous configuration are not affected.
func (r *Resolver) Update(cfg *ToastConfig) {
	if cfg == nil {
		r.cfg.Store(nil)
		return
	}
	c := *cfg
	r.cfg.Store(&c)
}

// Current returns a copy of the active configuration, or the defaults
// when none is set.
func (r *Resolver) Current() ToastConfig {
	if c := r.cfg.Load(); c != nil {
		return *c
	}
	return DefaultToastConfig()
}

// EffectiveDuration resolves the auto-dismiss duration. An explicit zero
// override is respected and means "never".
func (r *Resolver) EffectiveDuration(override *time.Duration) time.Duration {
	if override != nil {
		return *override
	}
	if c := r.cfg.Load(); c != nil {
		return c.Duration.Duration()
	}
	return FallbackDuration
}

// EffectiveMaxToasts resolves the stack capacity. Non-positive values at
// either layer are treated as unset.
func (r *Resolver) EffectiveMaxToasts(override int) int {
	if override > 0 {
		return override
	}
	if c := r.cfg.Load(); c != nil && c.MaxToasts > 0 {
		return c.MaxToasts
	}
	return FallbackMaxToasts
}

// ShowIcon resolves whether category constructors attach an icon.
func (r *Resolver) ShowIcon(override *bool) bool {
	if override != nil {
		return *override
	}
	if c := r.cfg.Load(); c != nil {
		return c.ShowIcon
	}
	return FallbackShowIcon
}

// Position returns the configured anchor for renderers.
func (r *Resolver) Position() Position {
	return r.Current().Position
}

// Theme returns the configured theme for renderers.
func (r *Resolver) Theme() Theme {
	return r.Current().Theme
}
