// Package services tracks the backing services the engine depends on
// (database, Redis) and reports their readiness.
package services

import "context"

// Provider is a backing service that can report its health
type Provider interface {
	// Type returns the service type name
	Type() string

	// HealthCheck checks if the service is available
	HealthCheck(ctx context.Context) error
}

// BaseProvider provides common functionality for providers
type BaseProvider struct {
	serviceType string
}

// Type returns the service type
func (p *BaseProvider) Type() string {
	return p.serviceType
}

// PingFunc adapts a ping function (for example a repository's Ping) to Provider
type PingFunc struct {
	BaseProvider
	ping func(ctx context.Context) error
}

// NewPingFunc creates a provider that calls ping on every health check
func NewPingFunc(serviceType string, ping func(ctx context.Context) error) *PingFunc {
	return &PingFunc{BaseProvider: BaseProvider{serviceType: serviceType}, ping: ping}
}

// HealthCheck calls the wrapped function
func (p *PingFunc) HealthCheck(ctx context.Context) error {
	return p.ping(ctx)
}
