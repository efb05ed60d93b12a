package confirmation

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/relay"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// VerifiedEvent is a pushed confirmation or rejection after verification.
type VerifiedEvent struct {
	// Info is the snapshot the signature was verified against
	Info      *safe.ExecuteInformation
	Kind      relay.EventKind
	Owner     common.Address
	Signature safe.Signature
	// Err is set when a confirmation failed verification
	Err error
}

// Listener verifies the confirmations and rejections pushed for a transaction hash.
type Listener struct {
	relay  relay.IRelayService
	repo   execution.IExecutionRepository
	logger *zap.Logger
}

// NewListener creates a Listener.
func NewListener(relayService relay.IRelayService, repo execution.IExecutionRepository, logger *zap.Logger) *Listener {
	return &Listener{
		relay:  relayService,
		repo:   repo,
		logger: logger,
	}
}

// Verify recovers the owner of a confirmation or rejection over the snapshot's hash. Signatures
// that do not recover, or recover to an address outside the owner set, fail with ErrInvalidSignature.
func (l *Listener) Verify(info *safe.ExecuteInformation, kind relay.EventKind, signature safe.Signature) (common.Address, error) {
	check := l.repo.CheckConfirmation
	if kind == relay.Rejected {
		check = l.repo.CheckRejection
	}
	owner, err := check(info, signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if !info.IsOwnerAddress(owner) {
		return owner, fmt.Errorf("%w: %s", ErrInvalidSignature, owner)
	}
	return owner, nil
}

// Run observes the pushes for info until ctx is cancelled and sends every verified confirmation
// and rejection to out. Confirmations that fail verification are sent with Err set; rejections
// that fail verification are dropped.
func (l *Listener) Run(ctx context.Context, info *safe.ExecuteInformation, out chan<- VerifiedEvent) {
	sub := l.relay.Observe(info.TransactionHash)
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			owner, err := l.Verify(info, event.Kind, event.Signature)
			if err != nil {
				l.logger.Sugar().Warnw("Discarding pushed signature",
					zap.String("hash", info.TransactionHash.String()),
					zap.String("kind", event.Kind.String()),
					zap.Error(err),
				)
				if event.Kind == relay.Rejected {
					continue
				}
			}
			verified := VerifiedEvent{
				Info:      info,
				Kind:      event.Kind,
				Owner:     owner,
				Signature: event.Signature,
				Err:       err,
			}
			select {
			case out <- verified:
			case <-ctx.Done():
				return
			}
		}
	}
}
