package transaction

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying t as the ambient transaction.
func NewContext(ctx context.Context, t *Transaction) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the ambient transaction carried by ctx, if it is still
// active.
func FromContext(ctx context.Context) (*Transaction, bool) {
	t, ok := ctx.Value(contextKey{}).(*Transaction)
	if !ok || t == nil || !t.Active() {
		return nil, false
	}
	return t, true
}
