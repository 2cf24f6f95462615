package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

// publish is fire and forget: a broker outage is logged and never fails the
// write that produced the event.
func publish(ctx context.Context, p mykafka.Publisher, topic string, key uint, typ string, data any) {
	if p == nil {
		return
	}
	err := p.PublishEvent(ctx, topic, strconv.FormatUint(uint64(key), 10), mykafka.NewEvent(typ, data))
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", typ, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
