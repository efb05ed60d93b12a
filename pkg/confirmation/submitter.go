package confirmation

import (
	"context"
	"fmt"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/metrics"
	"github.com/Layr-Labs/multisig-go/pkg/relay"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"go.uber.org/zap"
)

// Submitter executes fully confirmed transactions and tells the other owners about it.
type Submitter struct {
	repo    execution.IExecutionRepository
	relay   relay.IRelayService
	metrics *metrics.SessionMetrics
	logger  *zap.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(repo execution.IExecutionRepository, relayService relay.IRelayService, m *metrics.SessionMetrics, logger *zap.Logger) *Submitter {
	return &Submitter{
		repo:    repo,
		relay:   relayService,
		metrics: m,
		logger:  logger,
	}
}

// Submit executes the transaction with signatures and returns the chain transaction hash.
// Cancelling ctx does not abort a submission that was started, the transaction may already be
// broadcast. Notifying the other owners is best effort and never fails the submission.
func (s *Submitter) Submit(ctx context.Context, info *safe.ExecuteInformation, signatures safe.SignatureSet) (string, error) {
	if !info.IsReady(signatures) {
		return "", fmt.Errorf("%w: %d of %d confirmations", ErrThresholdNotMet, info.ConfirmationCount(signatures), info.Threshold)
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	chainHash, err := s.repo.Submit(ctx, info, signatures)
	s.metrics.Submission(start, err)
	if err != nil {
		return "", err
	}

	targets := info.PropagationTargets()
	if len(targets) == 0 {
		return chainHash, nil
	}
	if err := s.relay.PropagateSubmittedTransaction(ctx, info, chainHash, targets); err != nil {
		s.metrics.PropagationFailed()
		s.logger.Sugar().Warnw("Failed to propagate submitted transaction",
			zap.String("hash", info.TransactionHash.String()),
			zap.String("chainHash", chainHash),
			zap.Error(fmt.Errorf("%w: %w", ErrPropagationFailed, err)),
		)
	}
	return chainHash, nil
}
