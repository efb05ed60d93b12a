package safe

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Recover returns the address that produced sig over hash.
func Recover(hash common.Hash, sig Signature) (common.Address, error) {
	if sig.R == nil || sig.S == nil {
		return common.Address{}, fmt.Errorf("%w: missing r or s", ErrInvalidSignature)
	}
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, fmt.Errorf("%w: unsupported v %d", ErrInvalidSignature, sig.V)
	}
	recID := sig.V - 27
	if !crypto.ValidateSignatureValues(recID, sig.R, sig.S, false) {
		return common.Address{}, fmt.Errorf("%w: r or s out of range", ErrInvalidSignature)
	}

	raw := sig.Bytes()
	raw[64] = recID
	pub, err := crypto.SigToPub(hash.Bytes(), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
