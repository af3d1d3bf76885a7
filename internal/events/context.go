package events

import "context"

type sourceKey struct{}

// ContextWithSource returns a new context carrying the component that
// originated a request, so events emitted on its behalf are attributed to it.
func ContextWithSource(ctx context.Context, src EventSource) context.Context {
	return context.WithValue(ctx, sourceKey{}, src)
}

// SourceFromContext extracts the originating source, or fallback if absent.
func SourceFromContext(ctx context.Context, fallback EventSource) EventSource {
	if src, ok := ctx.Value(sourceKey{}).(EventSource); ok && src != "" {
		return src
	}
	return fallback
}
