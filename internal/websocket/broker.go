package websocket

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Broker разносит кадры комнат между экземплярами сервиса. Каждый экземпляр
// доставляет полученное только своим локальным подписчикам.
type Broker interface {
	Publish(ctx context.Context, roomID uuid.UUID, frame []byte) error
	// Subscribe блокируется до отмены ctx.
	Subscribe(ctx context.Context, deliver func(roomID uuid.UUID, frame []byte)) error
}

const redisChannelPrefix = "chat:room:"

type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, roomID uuid.UUID, frame []byte) error {
	return b.rdb.Publish(ctx, redisChannelPrefix+roomID.String(), frame).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, deliver func(roomID uuid.UUID, frame []byte)) error {
	ps := b.rdb.PSubscribe(ctx, redisChannelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			roomID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, redisChannelPrefix))
			if err != nil {
				continue
			}
			deliver(roomID, []byte(msg.Payload))
		}
	}
}
