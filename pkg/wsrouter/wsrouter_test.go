package wsrouter

import (
	"context"
	"errors"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seekInput struct {
	Time float64 `json:"time"`
}

func TestDispatchTyped(t *testing.T) {
	r := New()

	var got seekInput
	var gotType string
	Handle(r, "SEEK", func(ctx context.Context, _ *websocket.Conn, in seekInput) error {
		got = in
		gotType = GetMessageTypeFromCtx(ctx)
		return nil
	})

	err := r.Dispatch(context.Background(), nil, []byte(`{"type":"SEEK","payload":{"time":12.5}}`))
	require.NoError(t, err)
	assert.Equal(t, 12.5, got.Time)
	assert.Equal(t, "SEEK", gotType)
}

func TestDispatchErrors(t *testing.T) {
	r := New()
	Handle(r, "SEEK", func(context.Context, *websocket.Conn, seekInput) error { return nil })

	err := r.Dispatch(context.Background(), nil, []byte(`{"type":"NOPE"}`))
	assert.True(t, errors.Is(err, ErrUnknownMessageType))

	err = r.Dispatch(context.Background(), nil, []byte(`{"type":"SEEK","payload":{"time":"x"}}`))
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	err = r.Dispatch(context.Background(), nil, []byte(`not json`))
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestMiddlewareOrder(t *testing.T) {
	r := New()

	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc[any]) HandlerFunc[any] {
			return func(ctx context.Context, conn *websocket.Conn, p any) error {
				order = append(order, name)
				return next(ctx, conn, p)
			}
		}
	}
	r.Use(mw("first"), mw("second"))
	Handle(r, "ALIVE", func(context.Context, *websocket.Conn, struct{}) error {
		order = append(order, "handler")
		return nil
	})

	require.NoError(t, r.Dispatch(context.Background(), nil, []byte(`{"type":"ALIVE"}`)))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
