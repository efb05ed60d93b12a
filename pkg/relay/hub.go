package relay

import (
	"sync"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const subscriptionBuffer = 32

// EventKind distinguishes confirmations from rejections.
type EventKind int

const (
	Confirmed EventKind = iota
	Rejected
)

func (k EventKind) String() string {
	if k == Rejected {
		return "rejected"
	}
	return "confirmed"
}

// ConfirmationEvent is an unverified signature pushed by another owner device.
type ConfirmationEvent struct {
	Kind      EventKind
	Signature safe.Signature
}

// IPushMessageHandler consumes decoded pushes.
type IPushMessageHandler interface {
	HandlePushMessage(msg *PushMessage) bool
}

// Subscription delivers the confirmation events of one transaction hash until cancelled.
type Subscription struct {
	hub  *Hub
	hash common.Hash
	ch   chan ConfirmationEvent
	once sync.Once
}

// Events returns the delivery channel. It is closed by Cancel.
func (s *Subscription) Events() <-chan ConfirmationEvent {
	return s.ch
}

// Cancel stops delivery. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.release(s)
	})
}

// Hub fans incoming pushes out to the subscriptions of their transaction hash.
// The per hash observer is dropped when its last subscription is cancelled.
type Hub struct {
	logger *zap.Logger

	mu        sync.Mutex
	observers map[common.Hash]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:    logger,
		observers: make(map[common.Hash]map[*Subscription]struct{}),
	}
}

// Observe subscribes to the confirmations and rejections pushed for hash.
func (h *Hub) Observe(hash common.Hash) *Subscription {
	sub := &Subscription{
		hub:  h,
		hash: hash,
		ch:   make(chan ConfirmationEvent, subscriptionBuffer),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.observers[hash]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.observers[hash] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// ObservedHashes returns the number of hashes with at least one subscription.
func (h *Hub) ObservedHashes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

func (h *Hub) release(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.observers[sub.hash]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.observers, sub.hash)
	}
	close(sub.ch)
}

// HandlePushMessage routes confirmation and rejection pushes to their observers and reports
// whether any subscription received the event.
func (h *Hub) HandlePushMessage(msg *PushMessage) bool {
	var kind EventKind
	switch msg.Type {
	case TypeConfirmTransaction:
		kind = Confirmed
	case TypeRejectTransaction:
		kind = Rejected
	case TypeSendTransactionHash:
		h.logger.Sugar().Infow("Transaction submitted by another owner",
			zap.String("hash", msg.Hash.String()),
			zap.String("chainHash", msg.ChainHash),
		)
		return false
	default:
		h.logger.Sugar().Debugw("Ignoring push", zap.String("type", msg.Type))
		return false
	}

	event := ConfirmationEvent{Kind: kind, Signature: msg.Signature}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.observers[msg.Hash]
	delivered := false
	for sub := range subs {
		select {
		case sub.ch <- event:
			delivered = true
		default:
			h.logger.Sugar().Warnw("Dropping push for slow subscriber",
				zap.String("hash", msg.Hash.String()),
				zap.String("kind", kind.String()),
			)
		}
	}
	return delivered
}
