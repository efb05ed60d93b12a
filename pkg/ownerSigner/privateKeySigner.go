package ownerSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeySigner implements IOwnerSigner using a raw private key
type PrivateKeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewPrivateKeySigner creates a new PrivateKeySigner from a hex-encoded private key
func NewPrivateKeySigner(privateKeyHex string) (*PrivateKeySigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewPrivateKeySignerFromKey(privateKey), nil
}

// NewPrivateKeySignerFromKey wraps an already parsed key
func NewPrivateKeySignerFromKey(privateKey *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// SignHash signs the digest with the private key
func (p *PrivateKeySigner) SignHash(_ context.Context, hash common.Hash) (safe.Signature, error) {
	raw, err := crypto.Sign(hash.Bytes(), p.privateKey)
	if err != nil {
		return safe.Signature{}, fmt.Errorf("failed to sign hash: %w", err)
	}
	return safe.SignatureFromBytes(raw)
}

// GetAddress returns the address associated with this private key
func (p *PrivateKeySigner) GetAddress() common.Address {
	return p.address
}
