package safe

import (
	"math/big"

	"github.com/Layr-Labs/multisig-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
)

// SignatureSet maps an owner to the signature it produced over the current transaction hash.
type SignatureSet map[common.Address]Signature

// Clone returns an independent copy of the set.
func (s SignatureSet) Clone() SignatureSet {
	out := make(SignatureSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ExecuteInformation is a snapshot of everything needed to confirm and execute a transaction.
// A new snapshot is produced whenever the underlying transaction or its estimate changes.
type ExecuteInformation struct {
	Safe            common.Address
	TransactionHash common.Hash
	Transaction     *SafeTransaction
	Sender          common.Address
	Threshold       int
	// EffectiveThreshold is the number of signatures that must be collected from other devices
	// because the local owner signs at submission time.
	EffectiveThreshold int
	Owners             []common.Address
	SafeVersion        Version
	GasToken           common.Address
	GasPrice           *big.Int
	TxGas              *big.Int
	DataGas            *big.Int
	OperationalGas     *big.Int
	Balance            *big.Int
	IsOwner            bool
}

// NewExecuteInformation fills the derived fields (IsOwner, EffectiveThreshold) of the snapshot.
func NewExecuteInformation(info ExecuteInformation) *ExecuteInformation {
	info.IsOwner = util.Contains(info.Owners, info.Sender)
	info.EffectiveThreshold = info.Threshold
	if info.IsOwner {
		info.EffectiveThreshold--
	}
	return &info
}

// ComputeHash recomputes the canonical transaction hash from the snapshot parameters.
func (e *ExecuteInformation) ComputeHash() common.Hash {
	return TransactionHash(e.Safe, e.Transaction, e.TxGas, e.DataGas, e.GasPrice, e.GasToken, e.SafeVersion)
}

// GasCosts is the maximum fee the Safe pays to the relay for executing the transaction.
func (e *ExecuteInformation) GasCosts() *big.Int {
	total := new(big.Int)
	for _, g := range []*big.Int{e.TxGas, e.DataGas, e.OperationalGas} {
		if g != nil {
			total.Add(total, g)
		}
	}
	if e.GasPrice == nil {
		return new(big.Int)
	}
	return total.Mul(total, e.GasPrice)
}

// IsOwnerAddress reports whether address is part of the current owner set.
func (e *ExecuteInformation) IsOwnerAddress(address common.Address) bool {
	return util.Contains(e.Owners, address)
}

// ConfirmationCount counts the owner signatures plus the implicit local signature of an owner
// sender that has not signed yet.
func (e *ExecuteInformation) ConfirmationCount(signatures SignatureSet) int {
	count := 0
	for owner := range signatures {
		if e.IsOwnerAddress(owner) {
			count++
		}
	}
	if _, signed := signatures[e.Sender]; e.IsOwner && !signed {
		count++
	}
	return count
}

// IsReady reports whether ConfirmationCount reaches the threshold.
func (e *ExecuteInformation) IsReady(signatures SignatureSet) bool {
	return e.ConfirmationCount(signatures) >= e.Threshold
}

// RemoteTargets returns the owners that still need to be asked for a confirmation.
func (e *ExecuteInformation) RemoteTargets(signatures SignatureSet) []common.Address {
	return util.Filter(e.Owners, func(owner common.Address) bool {
		if owner == e.Sender {
			return false
		}
		_, signed := signatures[owner]
		return !signed
	})
}

// PropagationTargets returns every owner except the sender.
func (e *ExecuteInformation) PropagationTargets() []common.Address {
	return util.Filter(e.Owners, func(owner common.Address) bool {
		return owner != e.Sender
	})
}
