package chainManager

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChainManager_AddClient(t *testing.T) {
	l, _ := zap.NewDevelopment()
	cm := NewChainManager(l)
	client := NewMockEthClientInterface(t)
	client.On("ChainID", mock.Anything).Return(big.NewInt(100), nil)

	require.NoError(t, cm.AddClient(context.Background(), &ChainConfig{ChainID: 100}, client))

	chain, err := cm.GetChainForId(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), chain.ChainID())
	assert.Equal(t, client, chain.RPCClient)

	err = cm.AddClient(context.Background(), &ChainConfig{ChainID: 100}, client)
	assert.Error(t, err)

	_, err = cm.GetChainForId(1)
	assert.ErrorIs(t, err, ErrChainNotFound)
}

func TestChainManager_AddClientChainIdMismatch(t *testing.T) {
	l, _ := zap.NewDevelopment()
	cm := NewChainManager(l)
	client := NewMockEthClientInterface(t)
	client.On("ChainID", mock.Anything).Return(big.NewInt(5), nil)

	err := cm.AddClient(context.Background(), &ChainConfig{ChainID: 1}, client)
	assert.ErrorIs(t, err, ErrChainIdMismatch)
}

func TestChainManager_AddClientRpcError(t *testing.T) {
	l, _ := zap.NewDevelopment()
	cm := NewChainManager(l)
	client := NewMockEthClientInterface(t)
	client.On("ChainID", mock.Anything).Return(nil, errors.New("connection refused"))

	assert.Error(t, cm.AddClient(context.Background(), &ChainConfig{ChainID: 1}, client))
	_, err := cm.GetChainForId(1)
	assert.ErrorIs(t, err, ErrChainNotFound)
}
