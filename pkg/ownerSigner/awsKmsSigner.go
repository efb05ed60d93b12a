package ownerSigner

import (
	"context"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

var secp256k1HalfN = new(big.Int).Rsh(crypto.S256().Params().N, 1)

// AWSKMSSignerConfig holds the configuration for the AWS KMS owner signer.
type AWSKMSSignerConfig struct {
	// KeyID is the AWS KMS key ID or ARN of an ECC_SECG_P256K1 signing key
	KeyID string
	// Region is the AWS region where the key is located
	Region string
}

// AWSKMSSigner implements IOwnerSigner using AWS KMS
type AWSKMSSigner struct {
	kmsClient kmsiface.KMSAPI
	keyID     string
	address   common.Address
	logger    *zap.Logger
}

// asn1EcSig is the DER layout of an ECDSA signature returned by KMS
type asn1EcSig struct {
	R *big.Int
	S *big.Int
}

// asn1SubjectPublicKeyInfo is the DER layout of the public key returned by KMS
type asn1SubjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// NewAWSKMSSigner creates a new AWSKMSSigner with the specified KMS key ID and AWS region.
// This constructor establishes a connection to AWS KMS and derives the Ethereum address
// from the public key associated with the specified KMS key.
//
// Parameters:
//   - cfg: The KMS key and region
//   - logger: A zap logger
//
// Returns:
//   - *AWSKMSSigner: A new AWS KMS signer instance
//   - error: An error if the AWS session cannot be created or the key is invalid
func NewAWSKMSSigner(ctx context.Context, cfg *AWSKMSSignerConfig, logger *zap.Logger) (*AWSKMSSigner, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewAWSKMSSignerWithClient(ctx, kms.New(sess), cfg.KeyID, logger)
}

// NewAWSKMSSignerWithClient creates an AWSKMSSigner on top of an existing KMS client.
func NewAWSKMSSignerWithClient(ctx context.Context, client kmsiface.KMSAPI, keyID string, logger *zap.Logger) (*AWSKMSSigner, error) {
	address, err := getAddressFromKMSKey(ctx, client, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address from KMS key: %w", err)
	}
	logger.Sugar().Infow("Loaded owner key from AWS KMS",
		zap.String("keyId", keyID),
		zap.String("address", address.String()),
	)
	return &AWSKMSSigner{
		kmsClient: client,
		keyID:     keyID,
		address:   address,
		logger:    logger,
	}, nil
}

// GetAddress returns the Ethereum address associated with this KMS key.
func (a *AWSKMSSigner) GetAddress() common.Address {
	return a.address
}

// SignHash signs the digest with KMS and computes the recovery id locally.
func (a *AWSKMSSigner) SignHash(ctx context.Context, hash common.Hash) (safe.Signature, error) {
	result, err := a.kmsClient.SignWithContext(ctx, &kms.SignInput{
		KeyId:            aws.String(a.keyID),
		Message:          hash.Bytes(),
		MessageType:      aws.String(kms.MessageTypeDigest),
		SigningAlgorithm: aws.String(kms.SigningAlgorithmSpecEcdsaSha256),
	})
	if err != nil {
		return safe.Signature{}, fmt.Errorf("KMS signing failed: %w", err)
	}

	var parsed asn1EcSig
	if _, err := asn1.Unmarshal(result.Signature, &parsed); err != nil {
		return safe.Signature{}, fmt.Errorf("failed to parse KMS signature: %w", err)
	}
	// ethereum only accepts the lower half of the curve order for s
	if parsed.S.Cmp(secp256k1HalfN) > 0 {
		parsed.S = new(big.Int).Sub(crypto.S256().Params().N, parsed.S)
	}

	signature := make([]byte, 65)
	parsed.R.FillBytes(signature[0:32])
	parsed.S.FillBytes(signature[32:64])

	for v := 0; v < 2; v++ {
		signature[64] = byte(v)
		recovered, err := crypto.SigToPub(hash.Bytes(), signature)
		if err != nil {
			continue
		}
		if crypto.PubkeyToAddress(*recovered) == a.address {
			return safe.SignatureFromBytes(signature)
		}
	}
	return safe.Signature{}, ErrRecoveryIdNotFound
}

// getAddressFromKMSKey derives the Ethereum address from a KMS public key
func getAddressFromKMSKey(ctx context.Context, client kmsiface.KMSAPI, keyID string) (common.Address, error) {
	result, err := client.GetPublicKeyWithContext(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(keyID),
	})
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get public key from KMS: %w", err)
	}

	var info asn1SubjectPublicKeyInfo
	if _, err := asn1.Unmarshal(result.PublicKey, &info); err != nil {
		return common.Address{}, fmt.Errorf("failed to parse DER public key: %w", err)
	}
	pubKey, err := crypto.UnmarshalPubkey(info.PublicKey.Bytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to parse public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
