package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContentPubSub broadcasts admin content writes so other instances can drop
// their cached storefront views.
type ContentPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewContentPubSub(rdb *redis.Client) *ContentPubSub {
	return &ContentPubSub{
		rdb:     rdb,
		channel: ChannelContentChanged(),
	}
}

type contentChangedMsg struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id,omitempty"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *ContentPubSub) PublishEventChanged(ctx context.Context, eventID int64) error {
	msg := contentChangedMsg{
		Type:    "event_changed",
		EventID: eventID,
		TsUnix:  time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *ContentPubSub) PublishSettingsChanged(ctx context.Context) error {
	msg := contentChangedMsg{
		Type:   "settings_changed",
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *ContentPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, msgType string, eventID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev contentChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil && ev.Type != "" {
				handler(ctx, ev.Type, ev.EventID)
			}
		}
	}
}
