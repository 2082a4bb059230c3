package proxy

import "context"

func withForward(ctx context.Context, fwd forward) context.Context {
	return context.WithValue(ctx, contextKey{}, fwd)
}

func forwardFrom(ctx context.Context) forward {
	fwd, _ := ctx.Value(contextKey{}).(forward)
	return fwd
}
