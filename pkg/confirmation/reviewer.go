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

// Reviewer answers confirmation requests of other owners with the local owner key.
type Reviewer struct {
	repo   execution.IExecutionRepository
	relay  relay.IRelayService
	logger *zap.Logger
}

// NewReviewer creates a Reviewer.
func NewReviewer(repo execution.IExecutionRepository, relayService relay.IRelayService, logger *zap.Logger) *Reviewer {
	return &Reviewer{
		repo:   repo,
		relay:  relayService,
		logger: logger,
	}
}

// Approve signs the transaction and sends the confirmation to the requester.
func (r *Reviewer) Approve(ctx context.Context, info *safe.ExecuteInformation, requester common.Address) (safe.Signature, error) {
	sig, err := r.repo.SignConfirmation(ctx, info)
	if err != nil {
		return safe.Signature{}, fmt.Errorf("failed to sign confirmation: %w", err)
	}
	if err := r.relay.SendConfirmation(ctx, info, sig, []common.Address{requester}); err != nil {
		return sig, fmt.Errorf("%w: %w", ErrPropagationFailed, err)
	}
	r.logger.Sugar().Infow("Sent confirmation",
		zap.String("hash", info.TransactionHash.String()),
		zap.String("requester", requester.String()),
	)
	return sig, nil
}

// Reject signs a rejection and sends it to every other owner.
func (r *Reviewer) Reject(ctx context.Context, info *safe.ExecuteInformation) (safe.Signature, error) {
	sig, err := r.repo.SignRejection(ctx, info)
	if err != nil {
		return safe.Signature{}, fmt.Errorf("failed to sign rejection: %w", err)
	}
	targets := info.PropagationTargets()
	if len(targets) == 0 {
		return sig, nil
	}
	if err := r.relay.PropagateTransactionRejected(ctx, info, sig, targets); err != nil {
		return sig, fmt.Errorf("%w: %w", ErrPropagationFailed, err)
	}
	r.logger.Sugar().Infow("Sent rejection",
		zap.String("hash", info.TransactionHash.String()),
		zap.Int("targets", len(targets)),
	)
	return sig, nil
}
