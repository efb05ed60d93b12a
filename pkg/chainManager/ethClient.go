package chainManager

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// EthClientInterface defines the RPC methods used to read Safe state.
// It is satisfied by *ethclient.Client and can be mocked in tests.
type EthClientInterface interface {
	// ChainID returns the chain the client is connected to
	ChainID(ctx context.Context) (*big.Int, error)
	// BalanceAt returns the ether balance of an account, used when fees are paid in ether
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)

	// Contract call support (required for go-ethereum's bind package)
	bind.ContractCaller
}
