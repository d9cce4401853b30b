package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"go.uber.org/zap"

	apperrors "github.com/scrtlabs/trading-middleware/pkg/app/errors"
	"github.com/scrtlabs/trading-middleware/pkg/auth"
	"github.com/scrtlabs/trading-middleware/pkg/config"
	"github.com/scrtlabs/trading-middleware/pkg/user"
	"github.com/scrtlabs/trading-middleware/pkg/userstore"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecretEnv:      "JWT_SECRET",
		TokenTTL:          time.Hour,
		LoginMaxAge:       5 * time.Minute,
		LoginMaxClockSkew: time.Minute,
	}
}

func newTestService(agent Agent, cfg *config.AuthConfig) Service {
	if cfg == nil {
		cfg = testAuthConfig()
	}
	tokens := auth.NewManager([]byte("test-secret"), cfg.TokenTTL)
	return NewService(agent, tokens, cfg, zap.NewNop())
}

// serviceMessage returns the user-visible message of a service error.
// ServiceError.Error() reports the wrapped cause, which is what gets logged;
// the client sees Message.
func serviceMessage(t *testing.T, err error) string {
	t.Helper()
	var svcErr *apperrors.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected a service error, got %v", err)
	}
	return svcErr.Message
}

// signLogin reproduces Keplr's signArbitrary for a login message: sign the
// ADR-036 amino doc and wrap signature and pubkey in the base64 envelope.
func signLogin(t *testing.T, message string) (address, envelope string) {
	t.Helper()

	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey() failed: %v", err)
	}
	pubKey := priv.PubKey().SerializeCompressed()

	address, err = auth.AddressFromPubKey(pubKey)
	if err != nil {
		t.Fatalf("AddressFromPubKey() failed: %v", err)
	}

	doc := fmt.Sprintf(
		`{"account_number":"0","chain_id":"","fee":{"amount":[],"gas":"0"},"memo":"","msgs":[{"type":"sign/MsgSignData","value":{"data":%q,"signer":%q}}],"sequence":"0"}`,
		base64.StdEncoding.EncodeToString([]byte(message)), address,
	)
	digest := sha256.Sum256([]byte(doc))
	compact := ecdsa.SignCompact(priv, digest[:], true)

	var env auth.KeplrSignature
	env.Signature = base64.StdEncoding.EncodeToString(compact[1:])
	env.PubKey.Type = "tendermint/PubKeySecp256k1"
	env.PubKey.Value = base64.StdEncoding.EncodeToString(pubKey)

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}
	return address, base64.StdEncoding.EncodeToString(raw)
}

func loginMessage(wallet string, ts time.Time) string {
	return fmt.Sprintf("Login to trading agent\nWallet: %s\nTimestamp: %d", wallet, ts.UnixMilli())
}

func TestUserService_LoginHappyPath(t *testing.T) {
	ctx := context.Background()

	var ensuredWallet string
	agent := &mockAgent{
		EnsureUserFunc: func(_ context.Context, walletAddress string) (*user.User, error) {
			ensuredWallet = walletAddress
			return &user.User{WalletAddress: walletAddress}, nil
		},
	}
	svc := newTestService(agent, nil)

	// The message must embed the signer's own address, so derive the key
	// first and sign the assembled message.
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey() failed: %v", err)
	}
	pubKey := priv.PubKey().SerializeCompressed()
	address, err := auth.AddressFromPubKey(pubKey)
	if err != nil {
		t.Fatalf("AddressFromPubKey() failed: %v", err)
	}
	message := loginMessage(address, time.Now())

	doc := fmt.Sprintf(
		`{"account_number":"0","chain_id":"","fee":{"amount":[],"gas":"0"},"memo":"","msgs":[{"type":"sign/MsgSignData","value":{"data":%q,"signer":%q}}],"sequence":"0"}`,
		base64.StdEncoding.EncodeToString([]byte(message)), address,
	)
	digest := sha256.Sum256([]byte(doc))
	compact := ecdsa.SignCompact(priv, digest[:], true)

	var env auth.KeplrSignature
	env.Signature = base64.StdEncoding.EncodeToString(compact[1:])
	env.PubKey.Value = base64.StdEncoding.EncodeToString(pubKey)
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("failed to marshal envelope: %v", err)
	}
	sig := base64.StdEncoding.EncodeToString(raw)

	resp, err := svc.Login(ctx, &user.LoginRequest{
		WalletAddress: address,
		Message:       message,
		Signature:     sig,
	})
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected session token")
	}
	if resp.WalletAddress != address {
		t.Fatalf("wallet mismatch: got %s", resp.WalletAddress)
	}
	if resp.ExpiresIn != "1h" {
		t.Fatalf("expected expiresIn 1h, got %s", resp.ExpiresIn)
	}
	if ensuredWallet != address {
		t.Fatalf("user row was not ensured for %s", address)
	}
}

func TestUserService_LoginMissingFields(t *testing.T) {
	svc := newTestService(&mockAgent{}, nil)

	_, err := svc.Login(context.Background(), &user.LoginRequest{})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError, got %v", err)
	}
	if msg := serviceMessage(t, err); !strings.Contains(msg, "Missing required fields") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserService_LoginInvalidAddress(t *testing.T) {
	svc := newTestService(&mockAgent{}, nil)

	_, err := svc.Login(context.Background(), &user.LoginRequest{
		WalletAddress: "cosmos1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq",
		Message:       "msg",
		Signature:     "sig",
	})
	if err == nil {
		t.Fatalf("expected invalid address error")
	}
	if msg := serviceMessage(t, err); msg != "Invalid Secret Network wallet address" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserService_LoginTimestampWindow(t *testing.T) {
	wallet, _ := signLogin(t, "probe")
	cfg := testAuthConfig()
	cfg.SkipSignatureVerify = true
	svc := newTestService(&mockAgent{}, cfg)

	tests := []struct {
		name    string
		ts      time.Time
		wantErr string
	}{
		{"stale", time.Now().Add(-10 * time.Minute), "Message timestamp is too old"},
		{"future", time.Now().Add(5 * time.Minute), "Message timestamp is from the future"},
		{"fresh", time.Now(), ""},
		{"slightly future within skew", time.Now().Add(30 * time.Second), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), &user.LoginRequest{
				WalletAddress: wallet,
				Message:       loginMessage(wallet, tc.ts),
				Signature:     base64.StdEncoding.EncodeToString(make([]byte, 64)),
			})
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Login() failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %q", tc.wantErr)
			}
			if msg := serviceMessage(t, err); !strings.Contains(msg, tc.wantErr) {
				t.Fatalf("expected %q, got %q", tc.wantErr, msg)
			}
		})
	}
}

func TestUserService_LoginMissingTimestamp(t *testing.T) {
	wallet, _ := signLogin(t, "probe")
	svc := newTestService(&mockAgent{}, nil)

	_, err := svc.Login(context.Background(), &user.LoginRequest{
		WalletAddress: wallet,
		Message:       "Login without a timestamp for " + wallet,
		Signature:     "sig",
	})
	if err == nil {
		t.Fatalf("expected missing timestamp error")
	}
	if msg := serviceMessage(t, err); !strings.Contains(msg, "missing timestamp") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserService_LoginWalletMismatchInMessage(t *testing.T) {
	wallet, _ := signLogin(t, "probe")
	other, _ := signLogin(t, "probe")
	cfg := testAuthConfig()
	cfg.SkipSignatureVerify = true
	svc := newTestService(&mockAgent{}, cfg)

	_, err := svc.Login(context.Background(), &user.LoginRequest{
		WalletAddress: wallet,
		Message:       loginMessage(other, time.Now()),
		Signature:     base64.StdEncoding.EncodeToString(make([]byte, 64)),
	})
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
	if msg := serviceMessage(t, err); msg != "Wallet address mismatch in message" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserService_LoginBadSignatureEnvelope(t *testing.T) {
	wallet, _ := signLogin(t, "probe")
	svc := newTestService(&mockAgent{}, nil)

	_, err := svc.Login(context.Background(), &user.LoginRequest{
		WalletAddress: wallet,
		Message:       loginMessage(wallet, time.Now()),
		Signature:     "garbage!!!",
	})
	if err == nil {
		t.Fatalf("expected signature format error")
	}
	if msg := serviceMessage(t, err); !strings.Contains(msg, "Invalid signature format") {
		t.Fatalf("unexpected message: %q", msg)
	}
	if !apperrors.Is(err, apperrors.CategoryUnauthorized) {
		t.Fatalf("expected CategoryUnauthorized, got %v", err)
	}
}

func TestUserService_LoginRejectsBareSignatureWithoutPubKey(t *testing.T) {
	wallet, _ := signLogin(t, "probe")
	svc := newTestService(&mockAgent{}, nil)

	_, err := svc.Login(context.Background(), &user.LoginRequest{
		WalletAddress: wallet,
		Message:       loginMessage(wallet, time.Now()),
		Signature:     base64.StdEncoding.EncodeToString(make([]byte, 64)),
	})
	if err == nil {
		t.Fatalf("expected missing pubkey rejection")
	}
	if msg := serviceMessage(t, err); !strings.Contains(msg, "missing public key") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserService_LoginWrongSigner(t *testing.T) {
	wallet, _ := signLogin(t, "probe")
	svc := newTestService(&mockAgent{}, nil)

	// Envelope signed by a different key than the claimed wallet
	message := loginMessage(wallet, time.Now())
	_, envelope := signLogin(t, message)

	_, err := svc.Login(context.Background(), &user.LoginRequest{
		WalletAddress: wallet,
		Message:       message,
		Signature:     envelope,
	})
	if err == nil {
		t.Fatalf("expected verification failure")
	}
	if msg := serviceMessage(t, err); !strings.Contains(msg, "Signature verification failed") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserService_InfoRecreatesMissingRow(t *testing.T) {
	recreated := false
	agent := &mockAgent{
		GetUserFunc: func(context.Context, string) (*user.User, error) {
			return nil, userstore.ErrUserNotFound
		},
		EnsureUserFunc: func(_ context.Context, walletAddress string) (*user.User, error) {
			recreated = true
			return &user.User{WalletAddress: walletAddress}, nil
		},
	}
	svc := newTestService(agent, nil)

	usr, err := svc.Info(context.Background(), "secret1abc")
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if !recreated {
		t.Fatalf("expected missing row to be recreated")
	}
	if usr.WalletAddress != "secret1abc" {
		t.Fatalf("wallet mismatch: %s", usr.WalletAddress)
	}
}

func TestUserService_SetViewingKeysValidation(t *testing.T) {
	svc := newTestService(&mockAgent{}, nil)

	err := svc.SetViewingKeys(context.Background(), "secret1abc", &user.SetKeysRequest{})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if msg := serviceMessage(t, err); msg != "Missing required fields: sscrt_key, susdc_key" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserService_AuthorizeSpend(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		agent := &mockAgent{
			CheckAllowedToSpendFunc: func(context.Context, string) (bool, error) {
				return true, nil
			},
		}
		svc := newTestService(agent, nil)

		allowed, err := svc.AuthorizeSpend(context.Background(), "secret1abc")
		if err != nil {
			t.Fatalf("AuthorizeSpend() failed: %v", err)
		}
		if !allowed {
			t.Fatalf("expected allowed")
		}
	})

	t.Run("not granted", func(t *testing.T) {
		svc := newTestService(&mockAgent{}, nil)

		_, err := svc.AuthorizeSpend(context.Background(), "secret1abc")
		if err == nil {
			t.Fatalf("expected not-granted error")
		}
		if msg := serviceMessage(t, err); msg != "Spend allowances are not granted for both tokens" {
			t.Fatalf("unexpected message: %q", msg)
		}
	})

	t.Run("check failure", func(t *testing.T) {
		agent := &mockAgent{
			CheckAllowedToSpendFunc: func(context.Context, string) (bool, error) {
				return false, errors.New("viewing key rejected")
			},
		}
		svc := newTestService(agent, nil)

		_, err := svc.AuthorizeSpend(context.Background(), "secret1abc")
		if err == nil {
			t.Fatalf("expected check failure")
		}
		if msg := serviceMessage(t, err); !strings.Contains(msg, "Allowance check failed: viewing key rejected") {
			t.Fatalf("unexpected message: %q", msg)
		}
	})
}

func TestFormatTTL(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want string
	}{
		{time.Hour, "1h"},
		{2 * time.Hour, "2h"},
		{30 * time.Minute, "30m"},
		{90 * time.Second, "90s"},
	}
	for _, tc := range tests {
		if got := formatTTL(tc.ttl); got != tc.want {
			t.Fatalf("formatTTL(%s) = %s, want %s", tc.ttl, got, tc.want)
		}
	}
}
