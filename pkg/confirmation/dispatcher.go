package confirmation

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/relay"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/Layr-Labs/multisig-go/pkg/signatureStore"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Dispatcher asks the owners that did not sign yet to confirm a transaction.
type Dispatcher struct {
	relay  relay.IRelayService
	store  signatureStore.ISignatureStore
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher targeting owners missing from store.
func NewDispatcher(relayService relay.IRelayService, store signatureStore.ISignatureStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		relay:  relayService,
		store:  store,
		logger: logger,
	}
}

// Request sends a confirmation request to owners − sender − signed owners and returns them.
// When nobody is left to ask no request is sent and an empty target list is returned.
//
// Parameters:
//   - ctx: Context for cancellation
//   - info: The execution snapshot being confirmed
//
// Returns:
//   - []common.Address: The owners the request was sent to
//   - error: ErrConfirmationRequestFailed if the relay did not accept the request
func (d *Dispatcher) Request(ctx context.Context, info *safe.ExecuteInformation) ([]common.Address, error) {
	targets := info.RemoteTargets(d.store.Load())
	if len(targets) == 0 {
		d.logger.Sugar().Debugw("No owners left to request confirmations from",
			zap.String("hash", info.TransactionHash.String()),
		)
		return nil, nil
	}

	if hash := info.ComputeHash(); hash != info.TransactionHash {
		return nil, fmt.Errorf("%w: %w: %s != %s", ErrConfirmationRequestFailed, execution.ErrHashMismatch, hash, info.TransactionHash)
	}
	if err := d.relay.RequestConfirmations(ctx, info, targets); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfirmationRequestFailed, err)
	}
	d.logger.Sugar().Infow("Requested confirmations",
		zap.String("hash", info.TransactionHash.String()),
		zap.Int("targets", len(targets)),
	)
	return targets, nil
}
