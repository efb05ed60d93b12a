package confirmation

import (
	"math/big"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
)

// State is the position of a session in its lifecycle.
type State int32

const (
	Building State = iota
	Estimating
	EstimateFailed
	InsufficientFunds
	AwaitingConfirmations
	Submitting
	Submitted
	Rejected
	Failed
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Estimating:
		return "estimating"
	case EstimateFailed:
		return "estimateFailed"
	case InsufficientFunds:
		return "insufficientFunds"
	case AwaitingConfirmations:
		return "awaitingConfirmations"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the session ended. A failed submission can be retried.
func (s State) IsTerminal() bool {
	return s == Submitted || s == Rejected
}

// Events are the inputs of a session. A nil channel never fires.
type Events struct {
	RetryEstimate        <-chan struct{}
	RequestConfirmations <-chan struct{}
	Submit               <-chan struct{}
}

// ViewUpdate is one of the values emitted by a session.
type ViewUpdate interface {
	viewUpdate()
}

// TransactionInfo is emitted once when the session starts.
type TransactionInfo struct {
	Safe        common.Address
	Transaction *safe.SafeTransaction
}

// Estimate is emitted for every successful estimation.
type Estimate struct {
	Info *safe.ExecuteInformation
	// Fees is the maximum the Safe pays for execution
	Fees *big.Int
	// BalanceAfter is the gas token balance left after paying Fees
	BalanceAfter    *big.Int
	SufficientFunds bool
}

// EstimateError is emitted when estimation failed. A retry event starts a new estimation.
type EstimateError struct {
	Err error
}

// Confirmations is emitted every time the collected signatures change.
type Confirmations struct {
	Hash       common.Hash
	Signatures safe.SignatureSet
	IsReady    bool
}

// ConfirmationsRequested is emitted when a request cycle finished. Targets is empty when every
// owner already signed, in which case no request was sent and there is no cooldown.
type ConfirmationsRequested struct {
	Targets  []common.Address
	Cooldown time.Duration
}

// ConfirmationsError is emitted when a confirmation request failed.
type ConfirmationsError struct {
	Err error
}

// InvalidConfirmation is emitted for a pushed confirmation that was discarded. The session continues.
type InvalidConfirmation struct {
	Err error
}

// TransactionRejected is emitted when an owner rejected the transaction. It ends the session.
type TransactionRejected struct {
	Owner common.Address
}

// TransactionSubmitted reports the outcome of a submission. Success ends the session.
type TransactionSubmitted struct {
	Success   bool
	ChainHash string
	Err       error
}

func (TransactionInfo) viewUpdate()        {}
func (Estimate) viewUpdate()               {}
func (EstimateError) viewUpdate()          {}
func (Confirmations) viewUpdate()          {}
func (ConfirmationsRequested) viewUpdate() {}
func (ConfirmationsError) viewUpdate()     {}
func (InvalidConfirmation) viewUpdate()    {}
func (TransactionRejected) viewUpdate()    {}
func (TransactionSubmitted) viewUpdate()   {}
