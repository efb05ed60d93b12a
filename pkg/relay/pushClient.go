package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Layr-Labs/multisig-go/pkg/httpClient"
	"github.com/Layr-Labs/multisig-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/Layr-Labs/multisig-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var (
	// ErrNotifyFailed is returned when the push service did not accept a notification
	ErrNotifyFailed = errors.New("failed to send notification")
)

// IRelayService is what a confirmation session needs from the push relay.
type IRelayService interface {
	// RequestConfirmations asks targets to confirm the transaction described by info
	RequestConfirmations(ctx context.Context, info *safe.ExecuteInformation, targets []common.Address) error
	// PropagateSubmittedTransaction tells targets the transaction was executed in chainHash
	PropagateSubmittedTransaction(ctx context.Context, info *safe.ExecuteInformation, chainHash string, targets []common.Address) error
	// PropagateTransactionRejected sends the local rejection to targets
	PropagateTransactionRejected(ctx context.Context, info *safe.ExecuteInformation, signature safe.Signature, targets []common.Address) error
	// SendConfirmation sends the local confirmation to targets
	SendConfirmation(ctx context.Context, info *safe.ExecuteInformation, signature safe.Signature, targets []common.Address) error
	// Observe subscribes to confirmations and rejections pushed for hash
	Observe(hash common.Hash) *Subscription
}

// PushClientConfig configures the push service client.
type PushClientConfig struct {
	// BaseURL of the push service
	BaseURL string
	// Client is the transport; notifications are advisory and may be retried
	Client *retryablehttp.Client
}

// PushClient sends owner-signed notifications to the push service.
type PushClient struct {
	baseURL string
	client  *retryablehttp.Client
	signer  ownerSigner.IOwnerSigner
	logger  *zap.Logger
}

// NewPushClient creates a push client authenticating messages with signer.
func NewPushClient(cfg *PushClientConfig, signer ownerSigner.IOwnerSigner, logger *zap.Logger) *PushClient {
	return &PushClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  cfg.Client,
		signer:  signer,
		logger:  logger,
	}
}

// RequestConfirmations asks targets to confirm the transaction.
func (c *PushClient) RequestConfirmations(ctx context.Context, info *safe.ExecuteInformation, targets []common.Address) error {
	return c.sendNotification(ctx, newRequestConfirmationMessage(info), targets)
}

// PropagateSubmittedTransaction tells targets the transaction was submitted.
func (c *PushClient) PropagateSubmittedTransaction(ctx context.Context, info *safe.ExecuteInformation, chainHash string, targets []common.Address) error {
	return c.sendNotification(ctx, &transactionHashMessage{
		Type:      TypeSendTransactionHash,
		Hash:      info.TransactionHash.Hex(),
		ChainHash: chainHash,
	}, targets)
}

// PropagateTransactionRejected sends a rejection signature to targets.
func (c *PushClient) PropagateTransactionRejected(ctx context.Context, info *safe.ExecuteInformation, signature safe.Signature, targets []common.Address) error {
	return c.sendNotification(ctx, newSignatureMessage(TypeRejectTransaction, info.TransactionHash, signature), targets)
}

// SendConfirmation sends a confirmation signature to targets.
func (c *PushClient) SendConfirmation(ctx context.Context, info *safe.ExecuteInformation, signature safe.Signature, targets []common.Address) error {
	return c.sendNotification(ctx, newSignatureMessage(TypeConfirmTransaction, info.TransactionHash, signature), targets)
}

func (c *PushClient) sendNotification(ctx context.Context, message any, targets []common.Address) error {
	rawJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}
	sig, err := c.signer.SignHash(ctx, safe.MessageHash(rawJSON))
	if err != nil {
		return fmt.Errorf("%w: failed to sign push message: %w", ErrNotifyFailed, err)
	}

	body := &notification{
		Devices: util.Map(targets, func(a common.Address, _ uint64) string {
			return a.Hex()
		}),
		Message:   string(rawJSON),
		Signature: serviceSignature{R: sig.DecimalR(), S: sig.DecimalS(), V: int(sig.V)},
	}
	if _, err := httpClient.PostJSON[json.RawMessage](ctx, c.client, c.baseURL+"/api/v1/notifications/", body); err != nil {
		return fmt.Errorf("%w: %w", ErrNotifyFailed, err)
	}
	c.logger.Sugar().Debugw("Sent push notification",
		zap.Int("devices", len(targets)),
		zap.String("message", string(rawJSON)),
	)
	return nil
}

// Service combines the outgoing push client with the incoming push hub.
type Service struct {
	*PushClient
	*Hub
}

// NewService creates the IRelayService used by confirmation sessions.
func NewService(client *PushClient, hub *Hub) *Service {
	return &Service{PushClient: client, Hub: hub}
}
