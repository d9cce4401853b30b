package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/scrtlabs/trading-middleware/pkg/auth"
)

// Wallet holds the agent's signing key and derived account address.
type Wallet struct {
	priv    *secp256k1.PrivateKey
	pubKey  []byte
	address string
}

// NewWalletFromHex creates a wallet from a hex-encoded secp256k1 private
// key. A leading 0x prefix is accepted.
func NewWalletFromHex(hexKey string) (*Wallet, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key encoding: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("invalid private key length %d, expected 32", len(raw))
	}

	priv := secp256k1.PrivKeyFromBytes(raw)
	pubKey := priv.PubKey().SerializeCompressed()

	address, err := auth.AddressFromPubKey(pubKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address: %w", err)
	}

	return &Wallet{
		priv:    priv,
		pubKey:  pubKey,
		address: address,
	}, nil
}

// Address returns the wallet's bech32 account address
func (w *Wallet) Address() string {
	return w.address
}

// PubKey returns the 33-byte compressed public key
func (w *Wallet) PubKey() []byte {
	return w.pubKey
}

// Sign signs sha256(msg) and returns the 64-byte r||s signature expected by
// Cosmos SIGN_MODE_DIRECT.
func (w *Wallet) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	compact := ecdsa.SignCompact(w.priv, digest[:], true)
	if len(compact) != 65 {
		return nil, fmt.Errorf("unexpected signature length %d", len(compact))
	}
	// Strip the recovery byte; Cosmos wants plain r||s
	return compact[1:], nil
}
