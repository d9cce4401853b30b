package secret

import (
	"fmt"

	"github.com/cosmos/btcutil/bech32"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protowire"
)

// Type URLs and signing constants for the hand-assembled transaction
const (
	msgExecuteContractTypeURL = "/secret.compute.v1beta1.MsgExecuteContract"
	secp256k1PubKeyTypeURL    = "/cosmos.crypto.secp256k1.PubKey"
	signModeDirect            = 1
)

// FeeAmount computes the fee in the smallest denom unit for a gas limit and
// per-unit gas price, rounded up.
func FeeAmount(gasLimit uint64, gasPrice float64) string {
	return decimal.NewFromFloat(gasPrice).
		Mul(decimal.NewFromUint64(gasLimit)).
		Ceil().
		String()
}

// decodeAddress converts a bech32 account address to its raw 20-byte form.
// MsgExecuteContract carries addresses as raw bytes, not strings.
func decodeAddress(address string) ([]byte, error) {
	_, data, err := bech32.DecodeNoLimit(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return raw, nil
}

func encodeCoin(c Coin) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, c.Denom)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, c.Amount)
	return b
}

func encodeAny(typeURL string, value []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, typeURL)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, value)
	return b
}

func encodeMsgExecuteContract(sender, contract, msg []byte, sentFunds []Coin) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, sender)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, contract)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, msg)
	for _, coin := range sentFunds {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeCoin(coin))
	}
	return b
}

func encodeTxBody(msgs ...[]byte) []byte {
	var b []byte
	for _, msg := range msgs {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}
	return b
}

func encodeAuthInfo(pubKey []byte, sequence, gasLimit uint64, fee Coin) []byte {
	// PubKey { key = 1 }
	var key []byte
	key = protowire.AppendTag(key, 1, protowire.BytesType)
	key = protowire.AppendBytes(key, pubKey)

	// ModeInfo { single { mode = SIGN_MODE_DIRECT } }
	var single []byte
	single = protowire.AppendTag(single, 1, protowire.VarintType)
	single = protowire.AppendVarint(single, signModeDirect)
	var modeInfo []byte
	modeInfo = protowire.AppendTag(modeInfo, 1, protowire.BytesType)
	modeInfo = protowire.AppendBytes(modeInfo, single)

	var signerInfo []byte
	signerInfo = protowire.AppendTag(signerInfo, 1, protowire.BytesType)
	signerInfo = protowire.AppendBytes(signerInfo, encodeAny(secp256k1PubKeyTypeURL, key))
	signerInfo = protowire.AppendTag(signerInfo, 2, protowire.BytesType)
	signerInfo = protowire.AppendBytes(signerInfo, modeInfo)
	signerInfo = protowire.AppendTag(signerInfo, 3, protowire.VarintType)
	signerInfo = protowire.AppendVarint(signerInfo, sequence)

	var feeMsg []byte
	feeMsg = protowire.AppendTag(feeMsg, 1, protowire.BytesType)
	feeMsg = protowire.AppendBytes(feeMsg, encodeCoin(fee))
	feeMsg = protowire.AppendTag(feeMsg, 2, protowire.VarintType)
	feeMsg = protowire.AppendVarint(feeMsg, gasLimit)

	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, signerInfo)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, feeMsg)
	return b
}

func encodeSignDoc(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, bodyBytes)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, authInfoBytes)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, chainID)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, accountNumber)
	return b
}

func encodeTxRaw(bodyBytes, authInfoBytes, signature []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, bodyBytes)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, authInfoBytes)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, signature)
	return b
}

// buildSignedTx assembles and signs a single-message contract execution,
// returning the raw transaction bytes ready for broadcast.
func buildSignedTx(
	wallet *Wallet,
	exec *ExecuteMsg,
	acct *Account,
	chainID string,
	gasLimit uint64,
	fee Coin,
) ([]byte, error) {
	sender, err := decodeAddress(wallet.Address())
	if err != nil {
		return nil, err
	}
	contract, err := decodeAddress(exec.Contract)
	if err != nil {
		return nil, err
	}

	msg := encodeMsgExecuteContract(sender, contract, exec.Msg, exec.SentFunds)
	bodyBytes := encodeTxBody(encodeAny(msgExecuteContractTypeURL, msg))
	authInfoBytes := encodeAuthInfo(wallet.PubKey(), acct.Sequence, gasLimit, fee)

	signDoc := encodeSignDoc(bodyBytes, authInfoBytes, chainID, acct.AccountNumber)
	signature, err := wallet.Sign(signDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return encodeTxRaw(bodyBytes, authInfoBytes, signature), nil
}
