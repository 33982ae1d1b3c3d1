// Package bus wraps NATS JetStream with the subject/queue-group layout the
// check-execution pipeline uses, and maps the spec's "defer ack/pull when
// the worker pool is full" backpressure primitive onto JetStream's pull
// consumer Fetch/Ack semantics.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/zecrocks/hosh/internal/model"
)

const streamName = "HOSH"

// Bus holds a live NATS connection and JetStream context.
type Bus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	prefix string
}

// Connect dials url and ensures the durable stream backing every subject
// under prefix (default "hosh.") exists.
func Connect(url, prefix string) (*Bus, error) {
	if prefix == "" {
		prefix = "hosh."
	}
	nc, err := nats.Connect(url, nats.Name("hosh"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, errors.Wrap(err, "bus: connect")
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "bus: jetstream context")
	}

	b := &Bus{nc: nc, js: js, prefix: prefix}
	if err := b.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bus) ensureStream() error {
	_, err := b.js.StreamInfo(streamName)
	if err == nil {
		return nil
	}
	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{b.prefix + ">"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return errors.Wrap(err, "bus: add stream")
	}
	return nil
}

// Close closes the underlying connection without draining it.
func (b *Bus) Close() {
	b.nc.Close()
}

func (b *Bus) checkSubject(module model.Module, userSubmitted bool) string {
	if userSubmitted {
		return b.prefix + "check." + string(module) + ".user"
	}
	return b.prefix + "check." + string(module)
}

func (b *Bus) resultSubject(module model.Module) string {
	return b.prefix + "result." + string(module)
}

func (b *Bus) dryRunSubject(module model.Module) string {
	return b.prefix + "result." + string(module) + ".dryrun"
}

func (b *Bus) triggerSubject(module model.Module) string {
	return b.prefix + "check." + string(module) + ".trigger"
}

// PublishCheckRequest publishes req on the correct check.<module> (or
// check.<module>.user when user-submitted) subject.
func (b *Bus) PublishCheckRequest(req model.CheckRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "bus: marshal check request")
	}
	_, err = b.js.Publish(b.checkSubject(req.Module, req.UserSubmitted), data)
	return errors.Wrap(err, "bus: publish check request")
}

// PublishResult publishes res on result.<module>, or on the dry-run side
// subject when dryRun is true (spec §4.3: dry-run results are not persisted).
func (b *Bus) PublishResult(res model.ProbeResult, dryRun bool) error {
	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "bus: marshal probe result")
	}
	subject := b.resultSubject(res.Module)
	if dryRun {
		subject = b.dryRunSubject(res.Module)
	}
	_, err = b.js.Publish(subject, data)
	return errors.Wrap(err, "bus: publish probe result")
}

// PublishResultRetry retries PublishResult with exponential backoff up to
// maxAttempts, per spec §7's publish_retry_max.
func (b *Bus) PublishResultRetry(res model.ProbeResult, dryRun bool, maxAttempts int) error {
	var err error
	delay := 200 * time.Millisecond
	for i := 0; i < maxAttempts; i++ {
		if err = b.PublishResult(res, dryRun); err == nil {
			return nil
		}
		time.Sleep(delay)
		delay *= 2
	}
	return fmt.Errorf("bus: publish result failed after %d attempts: %w", maxAttempts, err)
}

// Consumer is a bound JetStream pull consumer for one queue group.
type Consumer struct {
	sub *nats.Subscription
}

// PullSubscribe binds a durable pull consumer named queueGroup to subject.
func (b *Bus) PullSubscribe(subject, queueGroup string) (*Consumer, error) {
	sub, err := b.js.PullSubscribe(subject, queueGroup, nats.AckExplicit())
	if err != nil {
		return nil, errors.Wrapf(err, "bus: pull subscribe %s/%s", subject, queueGroup)
	}
	return &Consumer{sub: sub}, nil
}

// CheckConsumer subscribes to both check.<module> and its check.<module>.user
// priority lane, sharing one queue group per spec §4.4. The user-submitted
// companion subject is mirrored for all three modules (SPEC_FULL.md's Open
// Question 2 decision), not just BTC.
func (b *Bus) CheckConsumer(module model.Module) (*Consumer, *Consumer, error) {
	group := string(module) + "_checkers"
	main, err := b.PullSubscribe(b.prefix+"check."+string(module), group)
	if err != nil {
		return nil, nil, err
	}
	userLane, err := b.PullSubscribe(b.prefix+"check."+string(module)+".user", group)
	if err != nil {
		return nil, nil, err
	}
	return main, userLane, nil
}

// Fetch pulls up to batch messages, waiting at most maxWait. Callers should
// only call Fetch when their worker pool has free capacity: not doing so
// (deferring Fetch while full) is the backpressure mechanism spec §4.4 asks
// for, since an un-fetched message stays available for redistribution to
// idle peers in the same queue group.
func (c *Consumer) Fetch(batch int, maxWait time.Duration) ([]*nats.Msg, error) {
	msgs, err := c.sub.Fetch(batch, nats.MaxWait(maxWait))
	if err != nil && err != nats.ErrTimeout {
		return nil, err
	}
	return msgs, nil
}

// Subscription is the handle returned by TriggerSubscribe; *nats.Subscription
// satisfies it. Narrowed to just Unsubscribe so publisher.Publisher can
// depend on an interface instead of the concrete NATS type.
type Subscription interface {
	Unsubscribe() error
}

// TriggerSubscribe subscribes to the on-demand trigger subject for module.
func (b *Bus) TriggerSubscribe(module model.Module, handler func(hostOnly string)) (Subscription, error) {
	return b.nc.Subscribe(b.triggerSubject(module), func(msg *nats.Msg) {
		var payload struct {
			Host string `json:"host"`
		}
		_ = json.Unmarshal(msg.Data, &payload)
		handler(payload.Host)
	})
}
