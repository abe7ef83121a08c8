package api

import (
	"context"

	"github.com/terra-clan/progress-engine/internal/models"
)

type contextKey string

const (
	clientContextKey  contextKey = "api_client"
	learnerContextKey contextKey = "learner_id"
)

// ClientFromContext extracts ApiClient from context
func ClientFromContext(ctx context.Context) *models.ApiClient {
	client, ok := ctx.Value(clientContextKey).(*models.ApiClient)
	if !ok {
		return nil
	}
	return client
}

// ContextWithClient adds ApiClient to context
func ContextWithClient(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

// LearnerFromContext returns the learner the request acts for
func LearnerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(learnerContextKey).(string)
	return id
}

// ContextWithLearner adds the learner ID to context
func ContextWithLearner(ctx context.Context, learnerID string) context.Context {
	return context.WithValue(ctx, learnerContextKey, learnerID)
}
