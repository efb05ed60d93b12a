package safe

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrInvalidSignature is returned when a signature is malformed or cannot be recovered
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrOutOfRange is returned for values that do not fit a uint256 hash field
	ErrOutOfRange = errors.New("value out of uint256 range")
)

const (
	// SignaturePrefix prefixes every message exchanged with the push relay
	SignaturePrefix = "GNO"

	rejectTransactionType = "rejectTransaction"
)

var (
	erc191Prefix = []byte{0x19, 0x01}

	// keccak256("EIP712Domain(address verifyingContract)")
	domainSeparatorTypeHash = common.HexToHash("0x035aff83d86937d35b32e04f0ddc6ff469290eef2f1b692d8a815c89404d4749")

	// keccak256("SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)")
	safeTxTypeHash = common.HexToHash("0xbb8310d486368db6bd6f849402fdd73ad53d316b5a4b2644ad6efe0f941286d8")

	// keccak256("SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 dataGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)")
	legacySafeTxTypeHash = common.HexToHash("0x14d461bc7412367e924637b363c7bf29b8f47e2f84869f4426e5633d8af47b20")
)

// TransactionHash computes the EIP-712 hash owners sign to confirm a Safe transaction.
// The same inputs always produce the same hash; any change to the gas parameters yields a
// different hash and therefore invalidates every signature collected for the previous one.
func TransactionHash(
	safeAddress common.Address,
	tx *SafeTransaction,
	txGas *big.Int,
	dataGas *big.Int,
	gasPrice *big.Int,
	gasToken common.Address,
	version Version,
) common.Hash {
	typeHash := safeTxTypeHash
	if version.Compare(Version100) < 0 {
		typeHash = legacySafeTxTypeHash
	}

	valuesHash := crypto.Keccak256(
		typeHash.Bytes(),
		padAddress(tx.To),
		padUint(tx.ValueOrZero()),
		crypto.Keccak256(tx.Data),
		padUint(big.NewInt(int64(tx.Operation))),
		padUint(txGas),
		padUint(dataGas),
		padUint(gasPrice),
		padAddress(gasToken),
		padAddress(common.Address{}),
		padUint(tx.NonceOrZero()),
	)

	return crypto.Keccak256Hash(erc191Prefix, domainHash(safeAddress), valuesHash)
}

// RejectionHash is the hash an owner signs to reject the transaction identified by txHash.
func RejectionHash(txHash common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte(SignaturePrefix + hexutil.Encode(txHash.Bytes()) + rejectTransactionType))
}

// MessageHash is the hash the local owner signs to authenticate a relay message.
func MessageHash(rawJSON []byte) common.Hash {
	return crypto.Keccak256Hash(append([]byte(SignaturePrefix), rawJSON...))
}

func domainHash(safeAddress common.Address) []byte {
	return crypto.Keccak256(domainSeparatorTypeHash.Bytes(), padAddress(safeAddress))
}

func padAddress(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

// IsUint256 reports whether v can be encoded as a uint256 field. nil encodes as zero.
func IsUint256(v *big.Int) bool {
	return v == nil || (v.Sign() >= 0 && v.BitLen() <= 256)
}

func padUint(i *big.Int) []byte {
	if i == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(i.Bytes(), 32)
}
