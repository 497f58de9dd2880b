package notify

import (
	"context"
	"log"

	"github.com/redis/rueidis"
)

// RedisNotifier publishes the data-changed signal so collaborators running
// in other processes (tray timer, palette, dashboards) can refresh without
// polling. Publish failures are logged and dropped: the commit already
// happened and notifications are advisory.
type RedisNotifier struct {
	client  rueidis.Client
	channel string
}

func NewRedisNotifier(client rueidis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) DataChanged() {
	ctx := context.Background()
	err := n.client.Do(
		ctx,
		n.client.B().Publish().Channel(n.channel).Message("data_changed").Build(),
	).Error()
	if err != nil {
		log.Printf("notify: failed to publish data changed: %v", err)
	}
}
