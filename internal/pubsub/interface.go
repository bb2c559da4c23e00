package pubsub

import "context"

type PubSubClient interface {
	SendMessage(ctx context.Context, topic string, data any) error
	Close()
}
