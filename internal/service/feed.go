package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/ws"
)

// Topics viewers can subscribe to. Order and history topics carry a
// parameter in the name so each viewer room stays narrow.
const (
	TopicOrders    = "orders"
	TopicSummaries = "summaries"
	TopicProducts  = "products"
	TopicSettings  = "settings"

	tableTopicPrefix   = "orders:table:"
	historyTopicPrefix = "history:"
)

// TableTopic names the per-table live-order topic.
func TableTopic(tableNo string) string { return tableTopicPrefix + tableNo }

// HistoryTopic names the archive topic for one date label.
func HistoryTopic(dateLabel string) string { return historyTopicPrefix + dateLabel }

// FeedStore defines the read queries snapshots are built from.
type FeedStore interface {
	ListLiveOrders(ctx context.Context) ([]database.Order, error)
	ListOrdersByTable(ctx context.Context, tableNo string) ([]database.Order, error)
	ListHistoryByDate(ctx context.Context, dateLabel string) ([]database.HistoryRecord, error)
	ListDailySummaries(ctx context.Context) ([]database.DailySummary, error)
	ListProducts(ctx context.Context) ([]database.Product, error)
	GetShopConfig(ctx context.Context) (database.ShopConfig, error)
}

// Feed builds topic snapshots and pushes them through the hub after
// every mutation. It is the hub's SnapshotSource.
type Feed struct {
	store  FeedStore
	hub    *ws.Hub
	logger *zap.Logger
}

func NewFeed(store FeedStore, hub *ws.Hub, logger *zap.Logger) *Feed {
	return &Feed{store: store, hub: hub, logger: logger}
}

// Snapshot builds the full current result set for a topic. Snapshots
// are always complete, never diffs, so a viewer can drop in at any
// point and render from the latest event alone.
func (f *Feed) Snapshot(ctx context.Context, topic string) (ws.Event, error) {
	event := ws.Event{Type: ws.EventSnapshot, Topic: topic}

	switch {
	case topic == TopicOrders:
		orders, err := f.store.ListLiveOrders(ctx)
		if err != nil {
			return ws.Event{}, fmt.Errorf("list live orders: %w", err)
		}
		event.Count = len(orders)
		return withPayload(event, orders)

	case strings.HasPrefix(topic, tableTopicPrefix):
		tableNo := strings.TrimPrefix(topic, tableTopicPrefix)
		if tableNo == "" {
			return ws.Event{}, fmt.Errorf("table topic %q has no table number", topic)
		}
		orders, err := f.store.ListOrdersByTable(ctx, tableNo)
		if err != nil {
			return ws.Event{}, fmt.Errorf("list table orders: %w", err)
		}
		event.Count = len(orders)
		return withPayload(event, orders)

	case strings.HasPrefix(topic, historyTopicPrefix):
		dateLabel := strings.TrimPrefix(topic, historyTopicPrefix)
		if dateLabel == "" {
			return ws.Event{}, fmt.Errorf("history topic %q has no date label", topic)
		}
		records, err := f.store.ListHistoryByDate(ctx, dateLabel)
		if err != nil {
			return ws.Event{}, fmt.Errorf("list history: %w", err)
		}
		return withPayload(event, records)

	case topic == TopicSummaries:
		summaries, err := f.store.ListDailySummaries(ctx)
		if err != nil {
			return ws.Event{}, fmt.Errorf("list summaries: %w", err)
		}
		return withPayload(event, summaries)

	case topic == TopicProducts:
		products, err := f.store.ListProducts(ctx)
		if err != nil {
			return ws.Event{}, fmt.Errorf("list products: %w", err)
		}
		return withPayload(event, products)

	case topic == TopicSettings:
		cfg, err := f.store.GetShopConfig(ctx)
		if err != nil {
			return ws.Event{}, fmt.Errorf("get shop config: %w", err)
		}
		return withPayload(event, cfg)

	default:
		return ws.Event{}, fmt.Errorf("unknown topic %q", topic)
	}
}

// Publish rebuilds the snapshot of each topic and broadcasts it to
// that topic's room. Failures are logged and skipped so one broken
// topic does not starve the others.
func (f *Feed) Publish(ctx context.Context, topics ...string) {
	for _, topic := range topics {
		event, err := f.Snapshot(ctx, topic)
		if err != nil {
			f.logger.Error("snapshot for publish failed",
				zap.String("topic", topic), zap.Error(err))
			continue
		}
		f.hub.Broadcast(event)
	}
}

// DecrementOrderAlerts lowers the remembered count of every alert
// subscriber on the live-order topic. Archiving calls this before
// publishing so serving one order and receiving another in the same
// beat still rings the bell.
func (f *Feed) DecrementOrderAlerts() {
	f.hub.DecrementAlerts(TopicOrders)
}

// withPayload marshals v into the event, normalizing nil slices so the
// wire always carries an array, never null.
func withPayload(event ws.Event, v any) (ws.Event, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return ws.Event{}, fmt.Errorf("marshal %s payload: %w", event.Topic, err)
	}
	if string(payload) == "null" {
		payload = []byte("[]")
	}
	event.Payload = payload
	return event, nil
}
