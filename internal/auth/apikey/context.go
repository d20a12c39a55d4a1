package apikey

import (
	"context"
	"net/http"
	"strings"
)

// LearnerHeader names the learner when the service runs without API keys.
// It is ignored whenever a validated key is present.
const LearnerHeader = "X-Learner-ID"

type contextKey struct{}

// WithKeyInfo returns a context carrying the validated key.
func WithKeyInfo(ctx context.Context, info *KeyInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// FromContext returns the validated key stored in ctx, or nil.
func FromContext(ctx context.Context) *KeyInfo {
	info, _ := ctx.Value(contextKey{}).(*KeyInfo)
	return info
}

// LearnerID returns the learner the request acts for. A key identifies
// exactly one learner, so this is the key ID; it is empty for anonymous
// requests.
func LearnerID(ctx context.Context) string {
	if info := FromContext(ctx); info != nil {
		return info.ID
	}
	return ""
}

// RequestLearner resolves the learner of r: the validated key first, then
// LearnerHeader.
func RequestLearner(r *http.Request) string {
	if id := LearnerID(r.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(LearnerHeader))
}
