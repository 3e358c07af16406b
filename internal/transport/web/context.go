package web

import "context"

// ContextKey is a custom type used for creating context keys.
// Using a custom type for context keys helps prevent collisions between keys
// defined in different packages.
type ContextKey string

const (
	// ClaimsContextKey holds the verified token claims set by the Auth middleware.
	ClaimsContextKey = ContextKey("claims")
	// ActorContextKey holds the acting user id (token subject).
	ActorContextKey = ContextKey("actor")

	requestIDContextKey = ContextKey("request_id")
	loggerContextKey    = ContextKey("logger")
)

// WithActor stores the acting user / Enregistre l'utilisateur agissant
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ActorContextKey, userID)
}

// ActingUser returns the acting user set by Auth / Retourne l'utilisateur agissant
func ActingUser(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ActorContextKey).(string)
	return userID, ok && userID != ""
}

// GetRequestID extracts request ID from context / Extrait l'ID de la requête du contexte
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok {
		return requestID
	}
	return ""
}
