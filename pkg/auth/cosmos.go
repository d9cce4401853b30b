package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cosmos/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// AddressPrefix is the bech32 human-readable part of Secret Network accounts
const AddressPrefix = "secret"

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrAddressMismatch  = errors.New("signature does not match wallet address")
)

// KeplrSignature is the envelope produced by Keplr's signArbitrary. The
// frontend base64-encodes the JSON before sending it.
type KeplrSignature struct {
	Signature string `json:"signature"`
	PubKey    struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"pub_key"`
}

// ValidateAddress checks that a string is a well-formed Secret Network
// account address.
func ValidateAddress(address string) error {
	if !strings.HasPrefix(address, AddressPrefix) {
		return fmt.Errorf("%w: missing %q prefix", ErrInvalidAddress, AddressPrefix)
	}
	hrp, data, err := bech32.DecodeNoLimit(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if hrp != AddressPrefix {
		return fmt.Errorf("%w: unexpected prefix %q", ErrInvalidAddress, hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 20 {
		return fmt.Errorf("%w: unexpected payload length %d", ErrInvalidAddress, len(raw))
	}
	return nil
}

// DecodeSignature unpacks a login signature. Keplr sends a base64-encoded
// JSON envelope with the signature and signing pubkey; a bare base64
// signature without pubkey is accepted as a fallback.
func DecodeSignature(signature string) (sig []byte, pubKey []byte, err error) {
	if raw, decErr := base64.StdEncoding.DecodeString(signature); decErr == nil {
		var envelope KeplrSignature
		if jsonErr := json.Unmarshal(raw, &envelope); jsonErr == nil && envelope.Signature != "" {
			sig, err = base64.StdEncoding.DecodeString(envelope.Signature)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: bad signature encoding", ErrInvalidSignature)
			}
			if envelope.PubKey.Value != "" {
				pubKey, err = base64.StdEncoding.DecodeString(envelope.PubKey.Value)
				if err != nil {
					return nil, nil, fmt.Errorf("%w: bad pubkey encoding", ErrInvalidSignature)
				}
			}
			if len(sig) != 64 {
				return nil, nil, fmt.Errorf("%w: expected 64 bytes, got %d", ErrInvalidSignature, len(sig))
			}
			return sig, pubKey, nil
		}
		// Not an envelope: treat the decoded bytes as the raw signature
		if len(raw) == 64 {
			return raw, nil, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: undecodable payload", ErrInvalidSignature)
}

// VerifyArbitrarySignature verifies a Keplr signArbitrary (ADR-036)
// signature over message for the given wallet address. The pubkey must be
// the 33-byte compressed secp256k1 key from the signature envelope.
func VerifyArbitrarySignature(walletAddress, message string, sig, pubKey []byte) error {
	if len(sig) != 64 {
		return fmt.Errorf("%w: expected 64 bytes, got %d", ErrInvalidSignature, len(sig))
	}
	if len(pubKey) != 33 {
		return fmt.Errorf("%w: expected 33-byte compressed pubkey, got %d", ErrInvalidSignature, len(pubKey))
	}

	pk, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// The signing key must actually control the claimed address
	derived, err := AddressFromPubKey(pubKey)
	if err != nil {
		return err
	}
	if derived != walletAddress {
		return ErrAddressMismatch
	}

	doc := adr036SignDoc(walletAddress, []byte(message))
	digest := sha256.Sum256(doc)

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return fmt.Errorf("%w: r overflow", ErrInvalidSignature)
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return fmt.Errorf("%w: s overflow", ErrInvalidSignature)
	}
	if !ecdsa.NewSignature(&r, &s).Verify(digest[:], pk) {
		return ErrInvalidSignature
	}
	return nil
}

// AddressFromPubKey derives the bech32 account address from a 33-byte
// compressed secp256k1 public key (sha256 then ripemd160, per Cosmos).
func AddressFromPubKey(pubKey []byte) (string, error) {
	raw := Hash160(pubKey)
	converted, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("address encoding: %w", err)
	}
	addr, err := bech32.Encode(AddressPrefix, converted)
	if err != nil {
		return "", fmt.Errorf("address encoding: %w", err)
	}
	return addr, nil
}

// adr036SignDoc builds the canonical amino sign doc Keplr signs for
// arbitrary data: a zero-fee StdSignDoc with a single MsgSignData and empty
// chain id. Field order matters; keys are emitted sorted as Keplr does.
func adr036SignDoc(signer string, data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	doc := fmt.Sprintf(
		`{"account_number":"0","chain_id":"","fee":{"amount":[],"gas":"0"},"memo":"","msgs":[{"type":"sign/MsgSignData","value":{"data":%q,"signer":%q}}],"sequence":"0"}`,
		encoded, signer,
	)
	return []byte(doc)
}
