package execution

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/multisig-go/pkg/chainManager"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// safeABI covers the read-only Safe methods the confirmation flow needs.
const safeABI = `[
	{"constant":true,"inputs":[],"name":"getThreshold","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"nonce","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"getOwners","outputs":[{"name":"","type":"address[]"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"VERSION","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// SafeState is the on-chain state of a Safe relevant for confirming a transaction.
type SafeState struct {
	Threshold int
	Nonce     *big.Int
	Owners    []common.Address
	// Balance is denominated in the gas token
	Balance *big.Int
	Version safe.Version
}

// ISafeStateReader loads Safe state.
type ISafeStateReader interface {
	LoadSafeState(ctx context.Context, safeAddress common.Address, gasToken common.Address) (*SafeState, error)
}

// ChainSafeStateReader reads Safe state over JSON-RPC.
type ChainSafeStateReader struct {
	client   chainManager.EthClientInterface
	safeABI  abi.ABI
	erc20ABI abi.ABI
	logger   *zap.Logger
}

// NewChainSafeStateReader creates a reader on top of an RPC client.
func NewChainSafeStateReader(client chainManager.EthClientInterface, logger *zap.Logger) (*ChainSafeStateReader, error) {
	parsedSafe, err := abi.JSON(strings.NewReader(safeABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse safe abi: %w", err)
	}
	parsedErc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	return &ChainSafeStateReader{
		client:   client,
		safeABI:  parsedSafe,
		erc20ABI: parsedErc20,
		logger:   logger,
	}, nil
}

// LoadSafeState fetches threshold, nonce, owners, version and gas token balance concurrently.
func (r *ChainSafeStateReader) LoadSafeState(ctx context.Context, safeAddress common.Address, gasToken common.Address) (*SafeState, error) {
	contract := bind.NewBoundContract(safeAddress, r.safeABI, r.client, nil, nil)
	state := &SafeState{}

	g, gCtx := errgroup.WithContext(ctx)
	opts := &bind.CallOpts{Context: gCtx}

	g.Go(func() error {
		threshold, err := callSingle[*big.Int](contract, opts, "getThreshold")
		if err != nil {
			return err
		}
		state.Threshold = int(threshold.Int64())
		return nil
	})
	g.Go(func() error {
		nonce, err := callSingle[*big.Int](contract, opts, "nonce")
		if err != nil {
			return err
		}
		state.Nonce = nonce
		return nil
	})
	g.Go(func() error {
		owners, err := callSingle[[]common.Address](contract, opts, "getOwners")
		if err != nil {
			return err
		}
		state.Owners = owners
		return nil
	})
	g.Go(func() error {
		raw, err := callSingle[string](contract, opts, "VERSION")
		if err != nil {
			return err
		}
		version, err := safe.ParseVersion(raw)
		if err != nil {
			return err
		}
		state.Version = version
		return nil
	})
	g.Go(func() error {
		balance, err := r.balanceOf(gCtx, safeAddress, gasToken)
		if err != nil {
			return err
		}
		state.Balance = balance
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load safe state for %s: %w", safeAddress, err)
	}
	r.logger.Sugar().Debugw("Loaded safe state",
		zap.String("safe", safeAddress.String()),
		zap.Int("threshold", state.Threshold),
		zap.Int("owners", len(state.Owners)),
		zap.String("nonce", state.Nonce.String()),
		zap.String("version", state.Version.String()),
	)
	return state, nil
}

func (r *ChainSafeStateReader) balanceOf(ctx context.Context, safeAddress common.Address, gasToken common.Address) (*big.Int, error) {
	if gasToken == (common.Address{}) {
		balance, err := r.client.BalanceAt(ctx, safeAddress, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load ether balance: %w", err)
		}
		return balance, nil
	}
	token := bind.NewBoundContract(gasToken, r.erc20ABI, r.client, nil, nil)
	return callSingle[*big.Int](token, &bind.CallOpts{Context: ctx}, "balanceOf", safeAddress)
}

func callSingle[T any](contract *bind.BoundContract, opts *bind.CallOpts, method string, params ...interface{}) (T, error) {
	var zero T
	var out []interface{}
	if err := contract.Call(opts, &out, method, params...); err != nil {
		return zero, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(out) != 1 {
		return zero, fmt.Errorf("unexpected output count %d for %s", len(out), method)
	}
	value, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("unexpected output type %T for %s", out[0], method)
	}
	return value, nil
}
