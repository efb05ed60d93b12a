package ownerSigner

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// AWSSMSignerConfig holds the configuration for the AWS Secrets Manager owner signer.
type AWSSMSignerConfig struct {
	// Region specifies the AWS region where the secret is stored
	Region string
	// SecretName is the name of the secret holding the hex encoded owner private key
	SecretName string
}

// AWSSMSigner implements IOwnerSigner with a private key stored in AWS Secrets Manager.
// The key is fetched for every signature and never kept in memory between calls.
type AWSSMSigner struct {
	logger     *zap.Logger
	client     secretsmanageriface.SecretsManagerAPI
	secretName string
	address    common.Address
}

// NewAWSSMSigner creates a new AWSSMSigner and resolves the owner address once.
func NewAWSSMSigner(ctx context.Context, cfg *AWSSMSignerConfig, logger *zap.Logger) (*AWSSMSigner, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewAWSSMSignerWithClient(ctx, secretsmanager.New(sess), cfg.SecretName, logger)
}

// NewAWSSMSignerWithClient creates an AWSSMSigner on top of an existing Secrets Manager client.
func NewAWSSMSignerWithClient(ctx context.Context, client secretsmanageriface.SecretsManagerAPI, secretName string, logger *zap.Logger) (*AWSSMSigner, error) {
	s := &AWSSMSigner{
		logger:     logger,
		client:     client,
		secretName: secretName,
	}
	pk, err := s.getSecret(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}
	s.address = pk.GetAddress()
	return s, nil
}

func (a *AWSSMSigner) getSecret(ctx context.Context) (*PrivateKeySigner, error) {
	result, err := a.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(a.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, err
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret string is nil")
	}
	return NewPrivateKeySigner(*result.SecretString)
}

// SignHash fetches the key and signs the digest.
func (a *AWSSMSigner) SignHash(ctx context.Context, hash common.Hash) (safe.Signature, error) {
	pk, err := a.getSecret(ctx)
	if err != nil {
		return safe.Signature{}, fmt.Errorf("failed to get secret: %w", err)
	}
	if pk.GetAddress() != a.address {
		a.logger.Sugar().Errorw("Owner secret was rotated to a different key",
			zap.String("expected", a.address.String()),
			zap.String("actual", pk.GetAddress().String()),
		)
		return safe.Signature{}, fmt.Errorf("secret %s no longer holds the key for %s", a.secretName, a.address)
	}
	return pk.SignHash(ctx, hash)
}

// GetAddress returns the owner address of the stored key.
func (a *AWSSMSigner) GetAddress() common.Address {
	return a.address
}
