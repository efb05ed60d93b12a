// Package execution computes the parameters a Safe transaction is confirmed and executed with
// and submits fully signed transactions through the relay service.
//
// Execution information combines on-chain Safe state (owners, threshold, nonce, balance and
// master copy version) with the gas estimate of the relay service. The resulting snapshot fixes
// the transaction hash every owner signs.
package execution

import (
	"context"
	"errors"
	"math/big"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrEstimationFailed is returned when Safe state or the gas estimate could not be loaded
	ErrEstimationFailed = errors.New("estimation failed")
	// ErrSubmissionFailed is returned when the relay service did not execute the transaction
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrNotOwnerSigner is returned when a local owner signature is required but no owner signer is configured
	ErrNotOwnerSigner = errors.New("local signer is not an owner of the safe")
	// ErrHashMismatch is returned when requested execution parameters do not produce the requested hash
	ErrHashMismatch = errors.New("transaction hash does not match the requested parameters")
)

// RequestedTransaction carries the execution parameters another owner asked to confirm.
// The gas parameters are fixed by the requester and are not re-estimated.
type RequestedTransaction struct {
	Safe        common.Address
	Hash        common.Hash
	Transaction *safe.SafeTransaction
	TxGas       *big.Int
	DataGas     *big.Int
	GasPrice    *big.Int
	GasToken    common.Address
}

// IExecutionRepository is the execution side of a confirmation session.
type IExecutionRepository interface {
	// LoadExecuteInformation estimates tx for safeAddress paying fees in gasToken
	LoadExecuteInformation(ctx context.Context, safeAddress common.Address, gasToken common.Address, tx *safe.SafeTransaction) (*safe.ExecuteInformation, error)
	// LoadRequestedExecuteInformation loads Safe state for a transaction whose parameters were fixed by another owner
	LoadRequestedExecuteInformation(ctx context.Context, req *RequestedTransaction) (*safe.ExecuteInformation, error)
	// CheckConfirmation recovers the owner that produced a confirmation signature
	CheckConfirmation(info *safe.ExecuteInformation, signature safe.Signature) (common.Address, error)
	// CheckRejection recovers the owner that produced a rejection signature
	CheckRejection(info *safe.ExecuteInformation, signature safe.Signature) (common.Address, error)
	// SignConfirmation signs the transaction hash with the local owner key
	SignConfirmation(ctx context.Context, info *safe.ExecuteInformation) (safe.Signature, error)
	// SignRejection signs the rejection hash with the local owner key
	SignRejection(ctx context.Context, info *safe.ExecuteInformation) (safe.Signature, error)
	// Submit executes the transaction and returns the 0x prefixed chain transaction hash
	Submit(ctx context.Context, info *safe.ExecuteInformation, signatures safe.SignatureSet) (string, error)
}
