package conversation

import "context"

// Gateway delivers outbound messages to the end user's messaging client.
type Gateway interface {
	Send(ctx context.Context, to string, msg Message) error
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, to string, msg Message) error

// Send calls f.
func (f GatewayFunc) Send(ctx context.Context, to string, msg Message) error {
	return f(ctx, to, msg)
}
