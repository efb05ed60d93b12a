// Package safe provides the data model of Safe multisig transactions along with the
// canonical transaction hash and signature recovery used by every confirmation component.
package safe

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Operation is the kind of call the Safe performs when executing a transaction.
type Operation uint8

const (
	Call         Operation = 0
	DelegateCall Operation = 1
)

func (o Operation) String() string {
	switch o {
	case Call:
		return "call"
	case DelegateCall:
		return "delegateCall"
	default:
		return "unknown(" + strconv.Itoa(int(o)) + ")"
	}
}

// SafeTransaction is the inner transaction a Safe executes once enough owners confirmed it.
// It is treated as immutable once its hash has been computed.
type SafeTransaction struct {
	To        common.Address
	Value     *big.Int
	Data      []byte
	Operation Operation
	// Nonce is nil until the execution information assigned one
	Nonce *big.Int
}

// WithNonce returns a copy of the transaction using the given nonce if none is set yet.
func (t *SafeTransaction) WithNonce(nonce *big.Int) *SafeTransaction {
	cp := *t
	if cp.Nonce == nil && nonce != nil {
		cp.Nonce = new(big.Int).Set(nonce)
	}
	return &cp
}

// ValueOrZero returns the transferred value, treating nil as zero.
func (t *SafeTransaction) ValueOrZero() *big.Int {
	if t.Value == nil {
		return new(big.Int)
	}
	return t.Value
}

// NonceOrZero returns the nonce, treating nil as zero.
func (t *SafeTransaction) NonceOrZero() *big.Int {
	if t.Nonce == nil {
		return new(big.Int)
	}
	return t.Nonce
}

// Signature holds the ECDSA components of an owner signature. V is 27 or 28.
type Signature struct {
	R *big.Int
	S *big.Int
	V uint8
}

// Bytes returns the 65 byte r || s || v encoding.
func (s Signature) Bytes() []byte {
	out := make([]byte, 65)
	if s.R != nil {
		s.R.FillBytes(out[0:32])
	}
	if s.S != nil {
		s.S.FillBytes(out[32:64])
	}
	out[64] = s.V
	return out
}

// Equal reports whether both signatures carry the same components.
func (s Signature) Equal(other Signature) bool {
	return s.V == other.V && cmpInt(s.R, other.R) == 0 && cmpInt(s.S, other.S) == 0
}

func (s Signature) String() string {
	return fmt.Sprintf("{r: %s, s: %s, v: %d}", decimal(s.R), decimal(s.S), s.V)
}

// SignatureFromBytes parses a 65 byte r || s || v signature. Recovery ids 0/1 are normalised to 27/28.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != 65 {
		return Signature{}, fmt.Errorf("%w: expected 65 bytes, got %d", ErrInvalidSignature, len(b))
	}
	v := b[64]
	if v < 27 {
		v += 27
	}
	return Signature{
		R: new(big.Int).SetBytes(b[0:32]),
		S: new(big.Int).SetBytes(b[32:64]),
		V: v,
	}, nil
}

// SignatureFromDecimal builds a signature from the decimal strings used in relay messages.
func SignatureFromDecimal(r, s, v string) (Signature, error) {
	rInt, ok := new(big.Int).SetString(r, 10)
	if !ok {
		return Signature{}, fmt.Errorf("%w: invalid r %q", ErrInvalidSignature, r)
	}
	sInt, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Signature{}, fmt.Errorf("%w: invalid s %q", ErrInvalidSignature, s)
	}
	vInt, err := strconv.ParseUint(v, 10, 8)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: invalid v %q", ErrInvalidSignature, v)
	}
	return Signature{R: rInt, S: sInt, V: uint8(vInt)}, nil
}

// DecimalR returns r as a decimal string.
func (s Signature) DecimalR() string { return decimal(s.R) }

// DecimalS returns s as a decimal string.
func (s Signature) DecimalS() string { return decimal(s.S) }

// DecimalV returns v as a decimal string.
func (s Signature) DecimalV() string { return strconv.Itoa(int(s.V)) }

func decimal(i *big.Int) string {
	if i == nil {
		return "0"
	}
	return i.String()
}

func cmpInt(a, b *big.Int) int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}
