// Package ownerSigner provides the signing backends used by the local Safe owner.
// Owners sign 32 byte digests (Safe transaction hashes, rejection hashes and relay message hashes)
// with secp256k1 keys held in memory, in AWS KMS or in AWS Secrets Manager.
package ownerSigner

import (
	"context"
	"errors"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrRecoveryIdNotFound is returned when neither recovery id reproduces the signer address
	ErrRecoveryIdNotFound = errors.New("failed to determine recovery id")
)

// IOwnerSigner defines the interface for producing owner signatures over digests.
type IOwnerSigner interface {
	// SignHash signs the digest and returns a signature with v in {27, 28}.
	//
	// Parameters:
	//   - ctx: Context for remote signing backends
	//   - hash: The digest to sign
	//
	// Returns:
	//   - safe.Signature: The recoverable signature
	//   - error: An error if the backend fails to sign
	SignHash(ctx context.Context, hash common.Hash) (safe.Signature, error)

	// GetAddress returns the owner address of this signer.
	GetAddress() common.Address
}
