package relay

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHash = common.HexToHash("0x8b3e3a57ad4b26f26b8bb8a1ef5b1bd1d3c6d4e4b9e1d1d1c5a3e2f1a0b9c8d7")

func TestParsePushMessage(t *testing.T) {
	t.Run("confirmation", func(t *testing.T) {
		msg, err := ParsePushMessage([]byte(`{"type":"confirmTransaction","hash":"` + testHash.Hex() + `","r":"1","s":"2","v":"27"}`))
		require.NoError(t, err)
		assert.Equal(t, TypeConfirmTransaction, msg.Type)
		assert.Equal(t, testHash, msg.Hash)
		assert.True(t, msg.IsSignature())
		assert.Equal(t, big.NewInt(1), msg.Signature.R)
		assert.Equal(t, uint8(27), msg.Signature.V)
	})
	t.Run("hash without prefix", func(t *testing.T) {
		msg, err := ParsePushMessage([]byte(`{"type":"rejectTransaction","hash":"` + testHash.Hex()[2:] + `","r":"1","s":"2","v":"28"}`))
		require.NoError(t, err)
		assert.Equal(t, testHash, msg.Hash)
	})
	t.Run("submitted", func(t *testing.T) {
		msg, err := ParsePushMessage([]byte(`{"type":"sendTransactionHash","hash":"` + testHash.Hex() + `","chainHash":"0xabc"}`))
		require.NoError(t, err)
		assert.False(t, msg.IsSignature())
		assert.Equal(t, "0xabc", msg.ChainHash)
	})
	t.Run("unknown type", func(t *testing.T) {
		_, err := ParsePushMessage([]byte(`{"type":"safeCreation","hash":"` + testHash.Hex() + `"}`))
		assert.ErrorIs(t, err, ErrUnknownMessageType)
	})
	t.Run("short hash", func(t *testing.T) {
		_, err := ParsePushMessage([]byte(`{"type":"confirmTransaction","hash":"0x1234","r":"1","s":"2","v":"27"}`))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})
	t.Run("missing signature", func(t *testing.T) {
		_, err := ParsePushMessage([]byte(`{"type":"confirmTransaction","hash":"` + testHash.Hex() + `"}`))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})
	t.Run("not json", func(t *testing.T) {
		_, err := ParsePushMessage([]byte(`confirm`))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})
}

func TestSignatureMessageRoundTrip(t *testing.T) {
	sig := safe.Signature{R: big.NewInt(11), S: big.NewInt(22), V: 28}
	raw, err := json.Marshal(newSignatureMessage(TypeConfirmTransaction, testHash, sig))
	require.NoError(t, err)

	msg, err := ParsePushMessage(raw)
	require.NoError(t, err)
	assert.True(t, sig.Equal(msg.Signature))
	assert.Equal(t, testHash, msg.Hash)
}

func TestRequestConfirmationMessage(t *testing.T) {
	info := &safe.ExecuteInformation{
		Safe:            common.HexToAddress("0x01"),
		TransactionHash: testHash,
		Transaction:     &safe.SafeTransaction{To: common.HexToAddress("0x02"), Operation: safe.DelegateCall},
		GasPrice:        big.NewInt(7),
	}
	msg := newRequestConfirmationMessage(info)
	assert.Equal(t, TypeSendTransaction, msg.Type)
	assert.Equal(t, "0", msg.Value)
	assert.Equal(t, "0x", msg.Data)
	assert.Equal(t, "1", msg.Operation)
	assert.Equal(t, "0", msg.TxGas)
	assert.Equal(t, "7", msg.GasPrice)
	assert.Equal(t, "0", msg.Nonce)
}
