package services

import (
	"context"
	"encoding/json"

	"bondledger/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Pub/sub channels carrying settlement outcomes to party dashboards
const (
	ChannelBondRequests   = "bondledger:notifications:bond_requests"
	ChannelCouponPayments = "bondledger:notifications:coupon_payments"
	ChannelBondTransfers  = "bondledger:notifications:bond_transfers"
)

// Notifier publishes settlement outcomes. Services hold a nil Notifier when
// notifications are disabled.
type Notifier interface {
	PublishBondRequest(ctx context.Context, n *domain.BondRequestNotification)
	PublishCouponPayment(ctx context.Context, n *domain.CouponPaymentNotification)
	PublishBondTransfer(ctx context.Context, n *domain.BondTransferNotification)
}

// RedisNotifier publishes notifications over redis pub/sub. Publishing is
// fire-and-forget: a broker outage never blocks or fails a settlement.
type RedisNotifier struct {
	client *redis.Client
	log    *logrus.Entry
}

// NewRedisNotifier creates a new redis notifier
func NewRedisNotifier(client *redis.Client, log *logrus.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		log:    log.WithField("component", "notifier"),
	}
}

// PublishBondRequest publishes a bond request outcome
func (r *RedisNotifier) PublishBondRequest(ctx context.Context, n *domain.BondRequestNotification) {
	r.publish(ctx, ChannelBondRequests, n)
}

// PublishCouponPayment publishes a per-bond coupon cycle outcome
func (r *RedisNotifier) PublishCouponPayment(ctx context.Context, n *domain.CouponPaymentNotification) {
	r.publish(ctx, ChannelCouponPayments, n)
}

// PublishBondTransfer publishes a settled purchase's cash leg
func (r *RedisNotifier) PublishBondTransfer(ctx context.Context, n *domain.BondTransferNotification) {
	r.publish(ctx, ChannelBondTransfers, n)
}

func (r *RedisNotifier) publish(ctx context.Context, channel string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.log.WithError(err).WithField("channel", channel).Warn("failed to encode notification")
		return
	}
	if err := r.client.Publish(ctx, channel, raw).Err(); err != nil {
		r.log.WithError(err).WithField("channel", channel).Warn("failed to publish notification")
	}
}

// Subscribe returns a redis subscription on the notification channels so an
// observer process can follow settlement activity
func (r *RedisNotifier) Subscribe(ctx context.Context) *redis.PubSub {
	return r.client.Subscribe(ctx, ChannelBondRequests, ChannelCouponPayments, ChannelBondTransfers)
}
