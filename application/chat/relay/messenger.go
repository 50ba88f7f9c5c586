package relay

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"peer-chat/application/chat/directory"
	"peer-chat/application/chat/msglog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// BroadcastLimit bounds concurrent deliveries of one broadcast.
	BroadcastLimit int
}

func DefaultOptions() Options {
	return Options{BroadcastLimit: 8}
}

type Via string

const (
	ViaRelay  Via = "relay"
	ViaDirect Via = "direct"
)

type Result struct {
	Via    Via
	To     string
	Target string
}

type BroadcastResult struct {
	SentTo []string
	Failed []string
}

type Messenger struct {
	relay  Relay
	dir    directory.Service
	cache  *AddrCache
	sender Sender
	logs   *msglog.Store

	logger *slog.Logger
	opts   Options
}

func NewMessenger(
	relay Relay,
	dir directory.Service,
	cache *AddrCache,
	sender Sender,
	logs *msglog.Store,
	logger *slog.Logger,
	opts Options,
) *Messenger {
	return &Messenger{
		relay:  relay,
		dir:    dir,
		cache:  cache,
		sender: sender,
		logs:   logs,
		logger: logger,
		opts:   opts,
	}
}

// Send delivers content from one peer to another, through the relay when it
// answers and directly to the cached address otherwise.
func (m *Messenger) Send(ctx context.Context, from, to, content string) (Result, error) {
	if from == "" || to == "" || content == "" {
		return Result{}, ErrInvalidMessage
	}

	logger := m.logger.With("from", from, "to", to)
	m.record(logger, from, msglog.DirectionSend, content)

	msg := Message{From: from, To: to, Content: content}

	target, err := m.relay.Relay(ctx, msg)
	if err == nil {
		m.record(logger, to, msglog.DirectionRecv, content)
		logger.Info("relayed message", "target", target)
		return Result{Via: ViaRelay, To: to, Target: target}, nil
	}
	logger.Warn("relay failed, trying direct delivery", "error", errors.Wrap(ErrRelayUnavailable, err.Error()))

	peer, ok := m.cache.Get(to)
	if !ok {
		return Result{}, m.fail(logger, from, content, errors.Errorf("no known address for %q", to))
	}

	if err := m.sender.Send(ctx, peer.Host, peer.Port, msg.Payload()); err != nil {
		return Result{}, m.fail(logger, from, content, err)
	}

	m.record(logger, to, msglog.DirectionRecv, content)
	logger.Info("delivered message directly", "target", peer.Addr())

	return Result{Via: ViaDirect, To: to, Target: peer.Addr()}, nil
}

func (m *Messenger) fail(logger *slog.Logger, from, content string, cause error) error {
	m.record(logger, from, msglog.DirectionFailed, content)
	logger.Warn("message not delivered", "error", cause)

	return errors.Wrap(ErrDeliveryFailed, cause.Error())
}

// Broadcast delivers content directly to every peer connected to from.
// One unreachable peer does not stop delivery to the others.
func (m *Messenger) Broadcast(ctx context.Context, from, content string) (BroadcastResult, error) {
	if from == "" || content == "" {
		return BroadcastResult{}, ErrInvalidMessage
	}

	neighbours, err := m.dir.Connections(ctx, from)
	if err != nil {
		return BroadcastResult{}, errors.Wrap(err, "resolving connections")
	}

	logger := m.logger.With("from", from)
	payload := []byte(fmt.Sprintf("[Broadcast from %s] %s", from, content))

	var (
		mu     sync.Mutex
		result = BroadcastResult{SentTo: []string{}, Failed: []string{}}
	)

	var g errgroup.Group
	if m.opts.BroadcastLimit > 0 {
		g.SetLimit(m.opts.BroadcastLimit)
	}
	for _, peer := range neighbours {
		g.Go(func() error {
			err := m.sender.Send(ctx, peer.Host, peer.Port, payload)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				logger.Warn("broadcast delivery failed", "to", peer.ID, "error", err)
				result.Failed = append(result.Failed, peer.ID)
				return nil
			}
			result.SentTo = append(result.SentTo, peer.ID)
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(result.SentTo)
	slices.Sort(result.Failed)

	for _, id := range result.SentTo {
		m.record(logger, id, msglog.DirectionRecv, content)
	}
	m.record(logger, from, msglog.DirectionSend,
		fmt.Sprintf("[Broadcast to %s] %s", strings.Join(result.SentTo, ", "), content))

	logger.Info("broadcast message", "sent", len(result.SentTo), "failed", len(result.Failed))

	return result, nil
}

// record appends to a log. A log failure never fails delivery.
func (m *Messenger) record(logger *slog.Logger, peerID string, dir msglog.Direction, content string) {
	if _, err := m.logs.Append(peerID, dir, content); err != nil {
		logger.Warn("failed to record message", "peer", peerID, "direction", dir, "error", err)
	}
}
