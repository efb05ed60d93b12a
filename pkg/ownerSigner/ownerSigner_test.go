package ownerSigner

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testDigest = crypto.Keccak256Hash([]byte("safe transaction"))

type fakeKMS struct {
	kmsiface.KMSAPI
	key    *ecdsa.PrivateKey
	highS  bool
	signed int
}

func (f *fakeKMS) GetPublicKeyWithContext(_ aws.Context, _ *kms.GetPublicKeyInput, _ ...request.Option) (*kms.GetPublicKeyOutput, error) {
	pub := crypto.FromECDSAPub(&f.key.PublicKey)
	der, err := asn1.Marshal(asn1SubjectPublicKeyInfo{
		Algorithm: pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}},
		PublicKey: asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{PublicKey: der}, nil
}

func (f *fakeKMS) SignWithContext(_ aws.Context, input *kms.SignInput, _ ...request.Option) (*kms.SignOutput, error) {
	f.signed++
	raw, err := crypto.Sign(input.Message, f.key)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(raw[:32])
	s := new(big.Int).SetBytes(raw[32:64])
	if f.highS {
		s = new(big.Int).Sub(crypto.S256().Params().N, s)
	}
	der, err := asn1.Marshal(asn1EcSig{R: r, S: s})
	if err != nil {
		return nil, err
	}
	return &kms.SignOutput{Signature: der}, nil
}

type fakeSecretsManager struct {
	secretsmanageriface.SecretsManagerAPI
	secret *string
	err    error
}

func (f *fakeSecretsManager) GetSecretValueWithContext(_ aws.Context, _ *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.secret}, nil
}

func assertRecovers(t *testing.T, signer IOwnerSigner) {
	t.Helper()
	sig, err := signer.SignHash(context.Background(), testDigest)
	require.NoError(t, err)
	assert.Contains(t, []uint8{27, 28}, sig.V)

	recovered, err := safe.Recover(testDigest, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.GetAddress(), recovered)
}

func TestPrivateKeySigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signer, err := NewPrivateKeySigner("0x" + hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.GetAddress())
	assertRecovers(t, signer)

	_, err = NewPrivateKeySigner("not-a-key")
	assert.Error(t, err)
}

func TestAWSKMSSigner(t *testing.T) {
	l, _ := zap.NewDevelopment()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	for _, highS := range []bool{false, true} {
		client := &fakeKMS{key: key, highS: highS}
		signer, err := NewAWSKMSSignerWithClient(context.Background(), client, "test-key", l)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.GetAddress())
		assertRecovers(t, signer)
		assert.Equal(t, 1, client.signed)
	}
}

func TestAWSSMSigner(t *testing.T) {
	l, _ := zap.NewDevelopment()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	secret := hex.EncodeToString(crypto.FromECDSA(key))
	client := &fakeSecretsManager{secret: &secret}

	signer, err := NewAWSSMSignerWithClient(context.Background(), client, "owner-key", l)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.GetAddress())
	assertRecovers(t, signer)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	rotated := hex.EncodeToString(crypto.FromECDSA(other))
	client.secret = &rotated
	_, err = signer.SignHash(context.Background(), testDigest)
	assert.Error(t, err)

	client.err = errors.New("access denied")
	_, err = signer.SignHash(context.Background(), testDigest)
	assert.Error(t, err)
}

func TestAWSSMSigner_NilSecret(t *testing.T) {
	l, _ := zap.NewDevelopment()
	_, err := NewAWSSMSignerWithClient(context.Background(), &fakeSecretsManager{}, "owner-key", l)
	assert.Error(t, err)
}
