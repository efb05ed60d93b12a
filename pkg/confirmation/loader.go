package confirmation

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
)

// InfoLoader produces the execution snapshot of the transaction a session confirms.
// It is called once when the session starts and again for every retry event.
type InfoLoader func(ctx context.Context, tx *safe.SafeTransaction) (*safe.ExecuteInformation, error)

// EstimateLoader estimates tx through the relay service. Every call may yield a different nonce
// and gas price and therefore a different hash.
func EstimateLoader(repo execution.IExecutionRepository, safeAddress common.Address, gasToken common.Address) InfoLoader {
	return func(ctx context.Context, tx *safe.SafeTransaction) (*safe.ExecuteInformation, error) {
		return repo.LoadExecuteInformation(ctx, safeAddress, gasToken, tx)
	}
}

// RequestedLoader loads the snapshot of a transaction another owner asked to confirm. The gas
// parameters of the request are kept so the hash stays the one the requester signed.
func RequestedLoader(repo execution.IExecutionRepository, req *execution.RequestedTransaction) InfoLoader {
	return func(ctx context.Context, _ *safe.SafeTransaction) (*safe.ExecuteInformation, error) {
		if err := CheckRestricted(req.Safe, req.Transaction); err != nil {
			return nil, err
		}
		return repo.LoadRequestedExecuteInformation(ctx, req)
	}
}

// CheckRestricted rejects transactions that must not be confirmed on request: delegate calls and
// calls into the Safe itself, which change owners, threshold, modules or the master copy.
func CheckRestricted(safeAddress common.Address, tx *safe.SafeTransaction) error {
	if tx.Operation == safe.DelegateCall {
		return fmt.Errorf("%w: delegate call", ErrRestrictedTransaction)
	}
	if tx.To == safeAddress && len(tx.Data) > 0 {
		return fmt.Errorf("%w: call modifies the safe", ErrRestrictedTransaction)
	}
	return nil
}
