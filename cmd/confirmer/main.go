package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/chainManager"
	"github.com/Layr-Labs/multisig-go/pkg/execution"
	"github.com/Layr-Labs/multisig-go/pkg/httpClient"
	"github.com/Layr-Labs/multisig-go/pkg/logger"
	"github.com/Layr-Labs/multisig-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	cli "github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "confirmer",
		Usage: "Safe multisig confirmation and submission engine",
		Description: `The confirmer CLI estimates Safe transactions, collects owner confirmations
through the push relay and submits the transaction once the threshold is met. It also
lets an owner approve or reject a transaction another owner asked to confirm.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
				EnvVars: []string{"DEBUG"},
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "JSON-RPC endpoint of the chain the Safe lives on",
				EnvVars: []string{"RPC_URL"},
			},
			&cli.Uint64Flag{
				Name:    "chain-id",
				Usage:   "Chain ID the RPC endpoint must serve",
				Value:   1,
				EnvVars: []string{"CHAIN_ID"},
			},
			&cli.StringFlag{
				Name:    "relay-url",
				Usage:   "Base URL of the transaction relay service",
				EnvVars: []string{"RELAY_URL"},
			},
			&cli.StringFlag{
				Name:    "push-url",
				Usage:   "Base URL of the push notification service",
				EnvVars: []string{"PUSH_URL"},
			},
			&cli.IntFlag{
				Name:    "push-retries",
				Usage:   "Retries for push notifications after the first attempt",
				Value:   3,
				EnvVars: []string{"PUSH_RETRIES"},
			},
			&cli.DurationFlag{
				Name:    "http-timeout",
				Usage:   "Timeout of a single relay or push HTTP attempt",
				Value:   30 * time.Second,
				EnvVars: []string{"HTTP_TIMEOUT"},
			},
			// Owner signing options
			&cli.StringFlag{
				Name:    "owner-private-key",
				Usage:   "Owner private key (hex format, with or without 0x prefix)",
				EnvVars: []string{"OWNER_PRIVATE_KEY"},
			},
			&cli.StringFlag{
				Name:    "owner-aws-kms-key-id",
				Usage:   "AWS KMS key ID of the owner key",
				EnvVars: []string{"OWNER_AWS_KMS_KEY_ID"},
			},
			&cli.StringFlag{
				Name:    "owner-aws-secret-name",
				Usage:   "AWS Secrets Manager secret name containing the owner private key",
				EnvVars: []string{"OWNER_AWS_SECRET_NAME"},
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region of the owner KMS key or secret",
				Value:   "us-east-1",
				EnvVars: []string{"AWS_REGION"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "hash",
				Usage: "Compute the hash owners sign for a Safe transaction",
				Description: `Compute the transaction hash from fully specified execution parameters
without contacting any service.`,
				Flags: append(transactionFlags(),
					&cli.StringFlag{Name: "tx-gas", Usage: "safeTxGas", Value: "0"},
					&cli.StringFlag{Name: "data-gas", Usage: "dataGas (baseGas)", Value: "0"},
					&cli.StringFlag{Name: "gas-price", Usage: "Gas price in gas token units", Value: "0"},
					&cli.StringFlag{Name: "nonce", Usage: "Safe nonce", Value: "0"},
					&cli.StringFlag{Name: "safe-version", Usage: "Safe master copy version", Value: "1.1.1"},
				),
				Action: hashAction,
			},
			{
				Name:    "confirm",
				Aliases: []string{"c"},
				Usage:   "Collect confirmations for a transaction and submit it",
				Description: `Estimate the transaction, request confirmations from the other owners and
submit it once enough owners confirmed. Commands are read from stdin, one per line:
retry, request, submit.`,
				Flags: append(transactionFlags(),
					&cli.StringSliceFlag{
						Name:  "signature",
						Usage: "Already known owner signature (65 byte hex r||s||v), may be repeated",
					},
					&cli.StringFlag{
						Name:    "push-listen",
						Usage:   "Address the incoming push endpoint listens on",
						Value:   ":8080",
						EnvVars: []string{"PUSH_LISTEN"},
					},
					&cli.StringFlag{
						Name:    "redis-addr",
						Usage:   "Redis address to receive pushes from; disabled when empty",
						EnvVars: []string{"REDIS_ADDR"},
					},
					&cli.StringFlag{
						Name:    "redis-channel",
						Usage:   "Redis pub/sub channel carrying pushes",
						Value:   "safe-pushes",
						EnvVars: []string{"REDIS_CHANNEL"},
					},
					&cli.StringFlag{
						Name:    "metrics-listen",
						Usage:   "Address the Prometheus metrics endpoint listens on; disabled when empty",
						EnvVars: []string{"METRICS_LISTEN"},
					},
					&cli.DurationFlag{
						Name:    "confirmation-cooldown",
						Usage:   "Minimum delay between two confirmation requests",
						Value:   30 * time.Second,
						EnvVars: []string{"CONFIRMATION_COOLDOWN"},
					},
				),
				Action: confirmAction,
			},
			{
				Name:    "review",
				Aliases: []string{"r"},
				Usage:   "Approve or reject a transaction another owner asked to confirm",
				Flags: append(transactionFlags(),
					&cli.StringFlag{Name: "hash", Usage: "Requested transaction hash", Required: true},
					&cli.StringFlag{Name: "requester", Usage: "Owner who requested the confirmation", Required: true},
					&cli.StringFlag{Name: "tx-gas", Usage: "Requested safeTxGas", Value: "0"},
					&cli.StringFlag{Name: "data-gas", Usage: "Requested dataGas", Value: "0"},
					&cli.StringFlag{Name: "gas-price", Usage: "Requested gas price", Value: "0"},
					&cli.StringFlag{Name: "nonce", Usage: "Requested Safe nonce", Required: true},
					&cli.BoolFlag{Name: "reject", Usage: "Reject instead of approving"},
				),
				Action: reviewAction,
			},
		},
		Before: validateFlags,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func transactionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "safe", Usage: "Safe address", Required: true},
		&cli.StringFlag{Name: "to", Usage: "Transaction target", Required: true},
		&cli.StringFlag{Name: "value", Usage: "Value in wei", Value: "0"},
		&cli.StringFlag{Name: "data", Usage: "Call data (hex)", Value: "0x"},
		&cli.UintFlag{Name: "operation", Usage: "0 for call, 1 for delegate call"},
		&cli.StringFlag{Name: "gas-token", Usage: "Token fees are paid in; zero address for ether", Value: common.Address{}.Hex()},
	}
}

func validateFlags(c *cli.Context) error {
	signers := 0
	for _, name := range []string{"owner-private-key", "owner-aws-kms-key-id", "owner-aws-secret-name"} {
		if c.String(name) != "" {
			signers++
		}
	}
	if signers > 1 {
		return fmt.Errorf("can only specify one of --owner-private-key, --owner-aws-kms-key-id or --owner-aws-secret-name")
	}
	if c.Int("push-retries") < 0 {
		return fmt.Errorf("--push-retries must not be negative")
	}
	return nil
}

func setupLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.NewLogger(&logger.LoggerConfig{
		Debug: c.Bool("debug"),
	})
}

func setupOwnerSigner(ctx context.Context, c *cli.Context, l *zap.Logger) (ownerSigner.IOwnerSigner, error) {
	if privateKey := c.String("owner-private-key"); privateKey != "" {
		return ownerSigner.NewPrivateKeySigner(privateKey)
	}
	if keyID := c.String("owner-aws-kms-key-id"); keyID != "" {
		return ownerSigner.NewAWSKMSSigner(ctx, &ownerSigner.AWSKMSSignerConfig{
			KeyID:  keyID,
			Region: c.String("aws-region"),
		}, l)
	}
	if secretName := c.String("owner-aws-secret-name"); secretName != "" {
		return ownerSigner.NewAWSSMSigner(ctx, &ownerSigner.AWSSMSignerConfig{
			SecretName: secretName,
			Region:     c.String("aws-region"),
		}, l)
	}
	return nil, fmt.Errorf("must specify one of --owner-private-key, --owner-aws-kms-key-id or --owner-aws-secret-name")
}

// setupRepository connects to the chain and the relay service and builds the execution repository.
func setupRepository(ctx context.Context, c *cli.Context, signer ownerSigner.IOwnerSigner, l *zap.Logger) (*execution.Repository, error) {
	if c.String("rpc-url") == "" || c.String("relay-url") == "" {
		return nil, fmt.Errorf("--rpc-url and --relay-url are required")
	}
	cm := chainManager.NewChainManager(l)
	cfg := &chainManager.ChainConfig{
		ChainID: c.Uint64("chain-id"),
		RPCUrl:  c.String("rpc-url"),
	}
	if err := cm.AddChain(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to add chain %d: %w", cfg.ChainID, err)
	}
	chain, err := cm.GetChainForId(cfg.ChainID)
	if err != nil {
		return nil, err
	}

	stateReader, err := execution.NewChainSafeStateReader(chain.RPCClient, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create safe state reader: %w", err)
	}
	relayClient := execution.NewRelayServiceClient(&execution.RelayServiceConfig{
		BaseURL: c.String("relay-url"),
		Client: httpClient.NewClient(&httpClient.Config{
			Timeout:   c.Duration("http-timeout"),
			Component: "relay",
		}, l),
	}, l)
	return execution.NewRepository(stateReader, relayClient, signer, l), nil
}

func parseTransaction(c *cli.Context) (common.Address, *safe.SafeTransaction, error) {
	if !common.IsHexAddress(c.String("safe")) {
		return common.Address{}, nil, fmt.Errorf("invalid safe address: %s", c.String("safe"))
	}
	if !common.IsHexAddress(c.String("to")) {
		return common.Address{}, nil, fmt.Errorf("invalid target address: %s", c.String("to"))
	}
	value, err := parseBig(c, "value")
	if err != nil {
		return common.Address{}, nil, err
	}
	data, err := hexutil.Decode(c.String("data"))
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("invalid data: %w", err)
	}
	operation := safe.Operation(c.Uint("operation"))
	if operation != safe.Call && operation != safe.DelegateCall {
		return common.Address{}, nil, fmt.Errorf("invalid operation: %d", c.Uint("operation"))
	}
	tx := &safe.SafeTransaction{
		To:        common.HexToAddress(c.String("to")),
		Value:     value,
		Data:      data,
		Operation: operation,
	}
	return common.HexToAddress(c.String("safe")), tx, nil
}

func parseGasToken(c *cli.Context) (common.Address, error) {
	if !common.IsHexAddress(c.String("gas-token")) {
		return common.Address{}, fmt.Errorf("invalid gas token: %s", c.String("gas-token"))
	}
	return common.HexToAddress(c.String("gas-token")), nil
}

func parseBig(c *cli.Context, name string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.String(name), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid --%s: %q", name, c.String(name))
	}
	return v, nil
}

func hashAction(c *cli.Context) error {
	safeAddress, tx, err := parseTransaction(c)
	if err != nil {
		return err
	}
	gasToken, err := parseGasToken(c)
	if err != nil {
		return err
	}
	params := make(map[string]*big.Int)
	for _, name := range []string{"tx-gas", "data-gas", "gas-price", "nonce"} {
		if params[name], err = parseBig(c, name); err != nil {
			return err
		}
	}
	version, err := safe.ParseVersion(c.String("safe-version"))
	if err != nil {
		return err
	}

	tx = tx.WithNonce(params["nonce"])
	hash := safe.TransactionHash(safeAddress, tx, params["tx-gas"], params["data-gas"], params["gas-price"], gasToken, version)
	fmt.Printf("Transaction Hash: %s\n", hash.Hex())
	fmt.Printf("Rejection Hash: %s\n", safe.RejectionHash(hash).Hex())
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func isClosed(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
