package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// HandlerFunc handles one message; id is the trailing topic segment.
type HandlerFunc func(ctx context.Context, id string, payload []byte) error

// TypedHandlerFunc receives the decoded message.
type TypedHandlerFunc[T any] func(ctx context.Context, id string, msg *T) error

// JSONAdapter decodes the payload into T before calling handler. Unknown
// fields are rejected.
func JSONAdapter[T any](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx context.Context, id string, payload []byte) error {
		msg := new(T)

		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(msg); err != nil {
			return fmt.Errorf("json unmarshal failed: %w", err)
		}

		return handler(ctx, id, msg)
	}
}
