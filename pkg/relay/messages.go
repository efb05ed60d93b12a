// Package relay talks to the push notification service owner devices use to exchange
// confirmation requests, confirmations, rejections and submitted transaction hashes.
//
// Outgoing notifications are JSON messages authenticated by the local owner: the owner signs
// keccak("GNO" + json) and the push service delivers the message to the listed devices.
// Incoming pushes arrive over HTTP or Redis pub/sub and are fanned out per transaction hash
// by the Hub.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/multisig-go/pkg/safe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	TypeSendTransaction     = "sendTransaction"
	TypeConfirmTransaction  = "confirmTransaction"
	TypeRejectTransaction   = "rejectTransaction"
	TypeSendTransactionHash = "sendTransactionHash"
)

var (
	// ErrUnknownMessageType is returned for pushes this engine does not handle
	ErrUnknownMessageType = errors.New("unknown push message type")
	// ErrMalformedMessage is returned for pushes missing required fields
	ErrMalformedMessage = errors.New("malformed push message")
)

// requestConfirmationMessage asks other owners to confirm a transaction.
type requestConfirmationMessage struct {
	Type           string `json:"type"`
	Hash           string `json:"hash"`
	Safe           string `json:"safe"`
	To             string `json:"to"`
	Value          string `json:"value"`
	Data           string `json:"data"`
	Operation      string `json:"operation"`
	TxGas          string `json:"txGas"`
	DataGas        string `json:"dataGas"`
	OperationalGas string `json:"operationalGas"`
	GasPrice       string `json:"gasPrice"`
	GasToken       string `json:"gasToken"`
	RefundReceiver string `json:"refundReceiver"`
	Nonce          string `json:"nonce"`
}

// signatureMessage carries a confirmation or a rejection.
type signatureMessage struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
	R    string `json:"r"`
	S    string `json:"s"`
	V    string `json:"v"`
}

// transactionHashMessage tells other owners the transaction was submitted.
type transactionHashMessage struct {
	Type      string `json:"type"`
	Hash      string `json:"hash"`
	ChainHash string `json:"chainHash"`
}

// notification is the body posted to the push service.
type notification struct {
	Devices   []string         `json:"devices"`
	Message   string           `json:"message"`
	Signature serviceSignature `json:"signature"`
}

type serviceSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

func newRequestConfirmationMessage(info *safe.ExecuteInformation) *requestConfirmationMessage {
	tx := info.Transaction
	return &requestConfirmationMessage{
		Type:           TypeSendTransaction,
		Hash:           info.TransactionHash.Hex(),
		Safe:           info.Safe.Hex(),
		To:             tx.To.Hex(),
		Value:          tx.ValueOrZero().String(),
		Data:           hexutil.Encode(tx.Data),
		Operation:      fmt.Sprint(int(tx.Operation)),
		TxGas:          decimal(info.TxGas),
		DataGas:        decimal(info.DataGas),
		OperationalGas: decimal(info.OperationalGas),
		GasPrice:       decimal(info.GasPrice),
		GasToken:       info.GasToken.Hex(),
		RefundReceiver: "0",
		Nonce:          tx.NonceOrZero().String(),
	}
}

func newSignatureMessage(msgType string, hash common.Hash, sig safe.Signature) *signatureMessage {
	return &signatureMessage{
		Type: msgType,
		Hash: hash.Hex(),
		R:    sig.DecimalR(),
		S:    sig.DecimalS(),
		V:    sig.DecimalV(),
	}
}

// PushMessage is a decoded incoming push.
type PushMessage struct {
	Type string
	Hash common.Hash
	// Signature is set for confirmTransaction and rejectTransaction
	Signature safe.Signature
	// ChainHash is set for sendTransactionHash
	ChainHash string
}

// IsSignature reports whether the push carries a confirmation or a rejection.
func (m *PushMessage) IsSignature() bool {
	return m.Type == TypeConfirmTransaction || m.Type == TypeRejectTransaction
}

type rawPushMessage struct {
	Type      string `json:"type"`
	Hash      string `json:"hash"`
	R         string `json:"r"`
	S         string `json:"s"`
	V         string `json:"v"`
	ChainHash string `json:"chainHash"`
}

// ParsePushMessage decodes the JSON payload of a push.
func ParsePushMessage(raw []byte) (*PushMessage, error) {
	var in rawPushMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch in.Type {
	case TypeConfirmTransaction, TypeRejectTransaction, TypeSendTransactionHash, TypeSendTransaction:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, in.Type)
	}

	if !strings.HasPrefix(in.Hash, "0x") {
		in.Hash = "0x" + in.Hash
	}
	hashBytes, err := hexutil.Decode(in.Hash)
	if err != nil || len(hashBytes) != common.HashLength {
		return nil, fmt.Errorf("%w: invalid hash %q", ErrMalformedMessage, in.Hash)
	}
	msg := &PushMessage{
		Type:      in.Type,
		Hash:      common.BytesToHash(hashBytes),
		ChainHash: in.ChainHash,
	}
	if msg.IsSignature() {
		sig, err := safe.SignatureFromDecimal(in.R, in.S, in.V)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		msg.Signature = sig
	}
	return msg, nil
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
