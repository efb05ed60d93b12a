package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/Layr-Labs/multisig-go/pkg/httpClient"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// EstimateParams is the body of a relay estimate request.
type EstimateParams struct {
	To        string `json:"to"`
	Value     string `json:"value"`
	Data      string `json:"data"`
	Operation int    `json:"operation"`
	Threshold int    `json:"threshold"`
	GasToken  string `json:"gasToken"`
}

// RelayEstimate is the relay answer to an estimate request. Amounts are decimal strings.
type RelayEstimate struct {
	SafeTxGas      string  `json:"safeTxGas"`
	DataGas        string  `json:"dataGas"`
	OperationalGas string  `json:"operationalGas"`
	GasPrice       string  `json:"gasPrice"`
	LastUsedNonce  *string `json:"lastUsedNonce"`
	GasToken       string  `json:"gasToken"`
}

// ServiceSignature is an owner signature with decimal r and s.
type ServiceSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// ExecuteParams is the body of a relay execute request.
type ExecuteParams struct {
	To         string             `json:"to"`
	Value      string             `json:"value"`
	Data       string             `json:"data"`
	Operation  int                `json:"operation"`
	Signatures []ServiceSignature `json:"signatures"`
	SafeTxGas  string             `json:"safeTxGas"`
	DataGas    string             `json:"dataGas"`
	GasPrice   string             `json:"gasPrice"`
	GasToken   string             `json:"gasToken"`
	Nonce      int64              `json:"nonce"`
}

// RelayExecution is the relay answer to an execute request.
type RelayExecution struct {
	TransactionHash string `json:"transactionHash"`
}

// IRelayServiceAPI is the transaction relay that estimates and executes Safe transactions.
type IRelayServiceAPI interface {
	Estimate(ctx context.Context, safeAddress common.Address, params *EstimateParams) (*RelayEstimate, error)
	Execute(ctx context.Context, safeAddress common.Address, params *ExecuteParams) (*RelayExecution, error)
}

// RelayServiceConfig configures the relay service client.
type RelayServiceConfig struct {
	// BaseURL of the relay service, e.g. https://safe-relay.example.com
	BaseURL string
	// Client is the transport; estimate and execute must not be retried automatically
	Client *retryablehttp.Client
}

// RelayServiceClient implements IRelayServiceAPI over HTTP.
type RelayServiceClient struct {
	baseURL string
	client  *retryablehttp.Client
	logger  *zap.Logger
}

// NewRelayServiceClient creates a relay client. Retries are disabled on the given transport.
func NewRelayServiceClient(cfg *RelayServiceConfig, logger *zap.Logger) *RelayServiceClient {
	cfg.Client.RetryMax = 0
	return &RelayServiceClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  cfg.Client,
		logger:  logger,
	}
}

// Estimate asks the relay for the gas parameters of a transaction.
func (c *RelayServiceClient) Estimate(ctx context.Context, safeAddress common.Address, params *EstimateParams) (*RelayEstimate, error) {
	url := fmt.Sprintf("%s/api/v1/safes/%s/transactions/estimate/", c.baseURL, safeAddress.Hex())
	estimate, err := httpClient.PostJSON[RelayEstimate](ctx, c.client, url, params)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate transaction: %w", err)
	}
	c.logger.Sugar().Debugw("Received relay estimate",
		zap.String("safe", safeAddress.String()),
		zap.String("safeTxGas", estimate.SafeTxGas),
		zap.String("dataGas", estimate.DataGas),
		zap.String("gasPrice", estimate.GasPrice),
	)
	return &estimate, nil
}

// Execute hands the signed transaction to the relay for execution.
func (c *RelayServiceClient) Execute(ctx context.Context, safeAddress common.Address, params *ExecuteParams) (*RelayExecution, error) {
	url := fmt.Sprintf("%s/api/v1/safes/%s/transactions/", c.baseURL, safeAddress.Hex())
	execution, err := httpClient.PostJSON[RelayExecution](ctx, c.client, url, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute transaction: %w", err)
	}
	if execution.TransactionHash == "" {
		return nil, fmt.Errorf("relay returned no transaction hash")
	}
	return &execution, nil
}
