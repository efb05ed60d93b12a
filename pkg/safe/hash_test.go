package safe

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSafe = common.HexToAddress("0x1f81FFF89Bd57811983a35650296681f99C65C7E")
	testTo   = common.HexToAddress("0xc257274276a4e539741ca11b590b9447b26a8051")
)

func testTransaction() *SafeTransaction {
	return &SafeTransaction{
		To:        testTo,
		Value:     big.NewInt(1000000000000000000),
		Data:      []byte{0xa9, 0x05, 0x9c, 0xbb},
		Operation: Call,
		Nonce:     big.NewInt(7),
	}
}

func hashWithGasPrice(gasPrice int64) common.Hash {
	return TransactionHash(testSafe, testTransaction(), big.NewInt(50000), big.NewInt(30000), big.NewInt(gasPrice), common.Address{}, Version{1, 1, 1})
}

func TestTransactionHash_Deterministic(t *testing.T) {
	first := hashWithGasPrice(20000000000)
	second := hashWithGasPrice(20000000000)
	assert.Equal(t, first, second)
	assert.NotEqual(t, common.Hash{}, first)
}

func TestTransactionHash_ChangesWithGasParameters(t *testing.T) {
	base := hashWithGasPrice(20000000000)
	assert.NotEqual(t, base, hashWithGasPrice(20000000001))

	tx := testTransaction()
	withOtherTxGas := TransactionHash(testSafe, tx, big.NewInt(50001), big.NewInt(30000), big.NewInt(20000000000), common.Address{}, Version{1, 1, 1})
	assert.NotEqual(t, base, withOtherTxGas)

	withOtherToken := TransactionHash(testSafe, tx, big.NewInt(50000), big.NewInt(30000), big.NewInt(20000000000), testTo, Version{1, 1, 1})
	assert.NotEqual(t, base, withOtherToken)
}

func TestTransactionHash_LegacyVersionUsesDifferentTypeHash(t *testing.T) {
	tx := testTransaction()
	current := TransactionHash(testSafe, tx, big.NewInt(1), big.NewInt(1), big.NewInt(1), common.Address{}, Version{1, 0, 0})
	legacy := TransactionHash(testSafe, tx, big.NewInt(1), big.NewInt(1), big.NewInt(1), common.Address{}, Version{0, 0, 2})
	assert.NotEqual(t, current, legacy)
}

func TestTransactionHash_MatchesManualEncoding(t *testing.T) {
	tx := testTransaction()
	txGas, dataGas, gasPrice := big.NewInt(50000), big.NewInt(30000), big.NewInt(1)

	domain := crypto.Keccak256(
		common.FromHex("0x035aff83d86937d35b32e04f0ddc6ff469290eef2f1b692d8a815c89404d4749"),
		common.LeftPadBytes(testSafe.Bytes(), 32),
	)
	values := crypto.Keccak256(
		common.FromHex("0xbb8310d486368db6bd6f849402fdd73ad53d316b5a4b2644ad6efe0f941286d8"),
		common.LeftPadBytes(tx.To.Bytes(), 32),
		common.LeftPadBytes(tx.Value.Bytes(), 32),
		crypto.Keccak256(tx.Data),
		make([]byte, 32),
		common.LeftPadBytes(txGas.Bytes(), 32),
		common.LeftPadBytes(dataGas.Bytes(), 32),
		common.LeftPadBytes(gasPrice.Bytes(), 32),
		make([]byte, 32),
		make([]byte, 32),
		common.LeftPadBytes(tx.Nonce.Bytes(), 32),
	)
	expected := crypto.Keccak256Hash([]byte{0x19, 0x01}, domain, values)

	assert.Equal(t, expected, TransactionHash(testSafe, tx, txGas, dataGas, gasPrice, common.Address{}, Version{1, 0, 0}))
}

func TestRejectionHash(t *testing.T) {
	txHash := hashWithGasPrice(1)
	expected := crypto.Keccak256Hash([]byte("GNO" + hexutil.Encode(txHash.Bytes()) + "rejectTransaction"))
	assert.Equal(t, expected, RejectionHash(txHash))
	assert.NotEqual(t, txHash, RejectionHash(txHash))
}

func TestRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)
	hash := hashWithGasPrice(1)

	raw, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	sig, err := SignatureFromBytes(raw)
	require.NoError(t, err)
	assert.Contains(t, []uint8{27, 28}, sig.V)

	recovered, err := Recover(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, owner, recovered)

	// the same signature over a different hash recovers to someone else
	other, err := Recover(hashWithGasPrice(2), sig)
	if err == nil {
		assert.NotEqual(t, owner, other)
	}
}

func TestRecover_InvalidSignature(t *testing.T) {
	tests := []struct {
		name string
		sig  Signature
	}{
		{name: "missing components", sig: Signature{V: 27}},
		{name: "bad v", sig: Signature{R: big.NewInt(1), S: big.NewInt(1), V: 3}},
		{name: "zero r", sig: Signature{R: big.NewInt(0), S: big.NewInt(1), V: 27}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recover(hashWithGasPrice(1), tt.sig)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestSignatureFromDecimal(t *testing.T) {
	sig, err := SignatureFromDecimal("987", "678", "27")
	require.NoError(t, err)
	assert.True(t, sig.Equal(Signature{R: big.NewInt(987), S: big.NewInt(678), V: 27}))
	assert.Equal(t, "987", sig.DecimalR())
	assert.Equal(t, "678", sig.DecimalS())
	assert.Equal(t, "27", sig.DecimalV())

	_, err = SignatureFromDecimal("0xzz", "1", "27")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestIsUint256(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	assert.True(t, IsUint256(nil))
	assert.True(t, IsUint256(big.NewInt(0)))
	assert.True(t, IsUint256(maxUint256))
	assert.False(t, IsUint256(new(big.Int).Add(maxUint256, big.NewInt(1))))
	assert.False(t, IsUint256(big.NewInt(-1)))
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.1.1")
	require.NoError(t, err)
	assert.Equal(t, Version{1, 1, 1}, v)
	assert.Equal(t, 1, v.Compare(Version100))
	assert.Equal(t, -1, Version{0, 0, 2}.Compare(Version100))

	_, err = ParseVersion("1.1")
	assert.Error(t, err)
}
