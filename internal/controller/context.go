package controller

import "context"

type contextKey int

const (
	clientCtxKey contextKey = iota
)

func withClient(ctx context.Context, cl *client) context.Context {
	return context.WithValue(ctx, clientCtxKey, cl)
}

func (c *controller) getClientFromCtx(ctx context.Context) *client {
	cl, ok := ctx.Value(clientCtxKey).(*client)
	if !ok {
		return nil
	}

	return cl
}
