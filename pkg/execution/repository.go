package execution

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/Layr-Labs/multisig-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Repository implements IExecutionRepository on top of Safe state, the relay service and the
// local owner signer. It remembers the last nonce it submitted per Safe so back to back
// transactions do not reuse a nonce before the chain caught up.
type Repository struct {
	stateReader ISafeStateReader
	relay       IRelayServiceAPI
	signer      ownerSigner.IOwnerSigner
	logger      *zap.Logger

	nonceMu    sync.Mutex
	nonceCache map[common.Address]*big.Int
}

// NewRepository creates a Repository. signer may be nil when the process is not an owner.
func NewRepository(
	stateReader ISafeStateReader,
	relay IRelayServiceAPI,
	signer ownerSigner.IOwnerSigner,
	logger *zap.Logger,
) *Repository {
	return &Repository{
		stateReader: stateReader,
		relay:       relay,
		signer:      signer,
		logger:      logger,
		nonceCache:  make(map[common.Address]*big.Int),
	}
}

// LoadExecuteInformation loads Safe state and the relay estimate and derives the transaction hash.
// The nonce is the highest of the on-chain nonce, the relay's last used nonce + 1 and the local
// nonce cache + 1, unless the transaction already carries one.
func (r *Repository) LoadExecuteInformation(
	ctx context.Context,
	safeAddress common.Address,
	gasToken common.Address,
	tx *safe.SafeTransaction,
) (*safe.ExecuteInformation, error) {
	state, err := r.stateReader.LoadSafeState(ctx, safeAddress, gasToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEstimationFailed, err)
	}

	estimate, err := r.relay.Estimate(ctx, safeAddress, &EstimateParams{
		To:        tx.To.Hex(),
		Value:     tx.ValueOrZero().String(),
		Data:      hexutil.Encode(tx.Data),
		Operation: int(tx.Operation),
		Threshold: state.Threshold,
		GasToken:  gasToken.Hex(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEstimationFailed, err)
	}
	if estimate.GasToken != "" && common.HexToAddress(estimate.GasToken) != gasToken {
		return nil, fmt.Errorf("%w: relay estimated for gas token %s instead of %s", ErrEstimationFailed, estimate.GasToken, gasToken)
	}

	txGas, err := parseDecimal("safeTxGas", estimate.SafeTxGas)
	if err != nil {
		return nil, err
	}
	dataGas, err := parseDecimal("dataGas", estimate.DataGas)
	if err != nil {
		return nil, err
	}
	operationalGas, err := parseDecimal("operationalGas", estimate.OperationalGas)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseDecimal("gasPrice", estimate.GasPrice)
	if err != nil {
		return nil, err
	}

	estimateNonce := new(big.Int)
	if estimate.LastUsedNonce != nil {
		lastUsed, err := parseDecimal("lastUsedNonce", *estimate.LastUsedNonce)
		if err != nil {
			return nil, err
		}
		estimateNonce.Add(lastUsed, big.NewInt(1))
	}
	nonce := state.Nonce
	if nonce == nil || estimateNonce.Cmp(nonce) > 0 {
		nonce = estimateNonce
	}
	nonce = r.checkNonce(safeAddress, nonce)

	var sender common.Address
	if r.signer != nil {
		sender = r.signer.GetAddress()
	}

	info := safe.NewExecuteInformation(safe.ExecuteInformation{
		Safe:           safeAddress,
		Transaction:    tx.WithNonce(nonce),
		Sender:         sender,
		Threshold:      state.Threshold,
		Owners:         state.Owners,
		SafeVersion:    state.Version,
		GasToken:       gasToken,
		GasPrice:       gasPrice,
		TxGas:          txGas,
		DataGas:        dataGas,
		OperationalGas: operationalGas,
		Balance:        state.Balance,
	})
	info.TransactionHash = info.ComputeHash()

	r.logger.Sugar().Infow("Loaded execute information",
		zap.String("safe", safeAddress.String()),
		zap.String("hash", info.TransactionHash.String()),
		zap.String("nonce", info.Transaction.NonceOrZero().String()),
		zap.Int("threshold", info.Threshold),
		zap.Bool("isOwner", info.IsOwner),
	)
	return info, nil
}

// LoadRequestedExecuteInformation builds the snapshot for a transaction another owner requested a
// confirmation for. The hash is recomputed from the requested parameters and must match req.Hash.
func (r *Repository) LoadRequestedExecuteInformation(ctx context.Context, req *RequestedTransaction) (*safe.ExecuteInformation, error) {
	if req.Transaction == nil || req.Transaction.Nonce == nil {
		return nil, fmt.Errorf("%w: requested transaction has no nonce", ErrEstimationFailed)
	}
	for field, value := range map[string]*big.Int{
		"value":    req.Transaction.Value,
		"nonce":    req.Transaction.Nonce,
		"txGas":    req.TxGas,
		"dataGas":  req.DataGas,
		"gasPrice": req.GasPrice,
	} {
		if !safe.IsUint256(value) {
			return nil, fmt.Errorf("%w: requested %s %s: %w", ErrEstimationFailed, field, value, safe.ErrOutOfRange)
		}
	}
	state, err := r.stateReader.LoadSafeState(ctx, req.Safe, req.GasToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEstimationFailed, err)
	}

	var sender common.Address
	if r.signer != nil {
		sender = r.signer.GetAddress()
	}
	info := safe.NewExecuteInformation(safe.ExecuteInformation{
		Safe:        req.Safe,
		Transaction: req.Transaction,
		Sender:      sender,
		Threshold:   state.Threshold,
		Owners:      state.Owners,
		SafeVersion: state.Version,
		GasToken:    req.GasToken,
		GasPrice:    req.GasPrice,
		TxGas:       req.TxGas,
		DataGas:     req.DataGas,
		Balance:     state.Balance,
	})
	info.TransactionHash = info.ComputeHash()
	if info.TransactionHash != req.Hash {
		return nil, fmt.Errorf("%w: expected %s, computed %s", ErrHashMismatch, req.Hash, info.TransactionHash)
	}
	return info, nil
}

// checkNonce bumps the nonce past the last one submitted by this process.
func (r *Repository) checkNonce(safeAddress common.Address, nonce *big.Int) *big.Int {
	r.nonceMu.Lock()
	defer r.nonceMu.Unlock()
	cached, ok := r.nonceCache[safeAddress]
	if ok && cached.Cmp(nonce) >= 0 {
		return new(big.Int).Add(cached, big.NewInt(1))
	}
	return nonce
}

// CheckConfirmation recovers the signer of a confirmation over the snapshot's hash.
func (r *Repository) CheckConfirmation(info *safe.ExecuteInformation, signature safe.Signature) (common.Address, error) {
	return safe.Recover(info.ComputeHash(), signature)
}

// CheckRejection recovers the signer of a rejection of the snapshot's hash.
func (r *Repository) CheckRejection(info *safe.ExecuteInformation, signature safe.Signature) (common.Address, error) {
	return safe.Recover(safe.RejectionHash(info.ComputeHash()), signature)
}

// SignConfirmation signs the transaction hash with the local owner key.
func (r *Repository) SignConfirmation(ctx context.Context, info *safe.ExecuteInformation) (safe.Signature, error) {
	if r.signer == nil {
		return safe.Signature{}, ErrNotOwnerSigner
	}
	return r.signer.SignHash(ctx, info.ComputeHash())
}

// SignRejection signs the rejection hash with the local owner key.
func (r *Repository) SignRejection(ctx context.Context, info *safe.ExecuteInformation) (safe.Signature, error) {
	if r.signer == nil {
		return safe.Signature{}, ErrNotOwnerSigner
	}
	return r.signer.SignHash(ctx, safe.RejectionHash(info.ComputeHash()))
}

// Submit executes the transaction through the relay. When the sender is an owner that has not
// signed yet its signature is produced here. Signatures are sent ordered by owner address, as
// the Safe contract requires.
func (r *Repository) Submit(ctx context.Context, info *safe.ExecuteInformation, signatures safe.SignatureSet) (string, error) {
	final := signatures.Clone()
	if _, signed := final[info.Sender]; info.IsOwner && !signed {
		sig, err := r.SignConfirmation(ctx, info)
		if err != nil {
			return "", fmt.Errorf("%w: failed to sign transaction: %w", ErrSubmissionFailed, err)
		}
		final[info.Sender] = sig
	}

	owners := make([]common.Address, 0, len(final))
	for owner := range final {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		return bytes.Compare(owners[i].Bytes(), owners[j].Bytes()) < 0
	})
	serviceSignatures := make([]ServiceSignature, 0, len(owners))
	for _, owner := range owners {
		sig := final[owner]
		serviceSignatures = append(serviceSignatures, ServiceSignature{R: sig.DecimalR(), S: sig.DecimalS(), V: int(sig.V)})
	}

	tx := info.Transaction
	execution, err := r.relay.Execute(ctx, info.Safe, &ExecuteParams{
		To:         tx.To.Hex(),
		Value:      tx.ValueOrZero().String(),
		Data:       hexutil.Encode(tx.Data),
		Operation:  int(tx.Operation),
		Signatures: serviceSignatures,
		SafeTxGas:  decimalOrZero(info.TxGas),
		DataGas:    decimalOrZero(info.DataGas),
		GasPrice:   decimalOrZero(info.GasPrice),
		GasToken:   info.GasToken.Hex(),
		Nonce:      tx.NonceOrZero().Int64(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	if tx.Nonce != nil {
		r.nonceMu.Lock()
		r.nonceCache[info.Safe] = new(big.Int).Set(tx.Nonce)
		r.nonceMu.Unlock()
	}

	chainHash := execution.TransactionHash
	if !strings.HasPrefix(chainHash, "0x") {
		chainHash = "0x" + chainHash
	}
	r.logger.Sugar().Infow("Submitted transaction",
		zap.String("safe", info.Safe.String()),
		zap.String("hash", info.TransactionHash.String()),
		zap.String("chainHash", chainHash),
		zap.Int("signatures", len(serviceSignatures)),
	)
	return chainHash, nil
}

func parseDecimal(field, raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s %q", ErrEstimationFailed, field, raw)
	}
	if !safe.IsUint256(value) {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrEstimationFailed, field, raw, safe.ErrOutOfRange)
	}
	return value, nil
}

func decimalOrZero(i *big.Int) string {
	if i == nil {
		return "0"
	}
	return i.String()
}
