package secret

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scrtlabs/trading-middleware/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&config.SecretConfig{
		LCDURL:         server.URL,
		ChainID:        "secret-4",
		RequestTimeout: 5 * time.Second,
		GasLimit:       3_500_000,
		GasPrice:       0.1,
		FeeDenom:       "uscrt",
	})
	return client, server
}

func TestClient_Account(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/cosmos/auth/v1beta1/accounts/") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"account":{"account_number":"42","sequence":"7"}}`)
	}))

	acct, err := client.Account(context.Background(), "secret1abc")
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if acct.AccountNumber != 42 || acct.Sequence != 7 {
		t.Fatalf("unexpected account: %+v", acct)
	}
}

func TestClient_AccountBaseAccountFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"account":{"base_account":{"account_number":"10","sequence":"3"}}}`)
	}))

	acct, err := client.Account(context.Background(), "secret1abc")
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if acct.AccountNumber != 10 || acct.Sequence != 3 {
		t.Fatalf("unexpected account: %+v", acct)
	}
}

func TestClient_SmartQuery(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, `{"data":{"answer":"plain"}}`)
	}))

	query := map[string]any{"get_models": map[string]any{}}
	var result struct {
		Answer string `json:"answer"`
	}
	if err := client.SmartQuery(context.Background(), "secret1contract", query, &result); err != nil {
		t.Fatalf("SmartQuery() failed: %v", err)
	}
	if result.Answer != "plain" {
		t.Fatalf("unexpected answer: %q", result.Answer)
	}

	decoded, err := base64.StdEncoding.DecodeString(gotQuery)
	if err != nil {
		t.Fatalf("query parameter is not base64: %v", err)
	}
	if string(decoded) != `{"get_models":{}}` {
		t.Fatalf("unexpected query payload: %s", decoded)
	}
}

func TestClient_SmartQueryBase64WrappedData(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{"answer":"wrapped"}`))
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"data":%q}`, payload)
	}))

	var result struct {
		Answer string `json:"answer"`
	}
	if err := client.SmartQuery(context.Background(), "secret1contract", map[string]any{}, &result); err != nil {
		t.Fatalf("SmartQuery() failed: %v", err)
	}
	if result.Answer != "wrapped" {
		t.Fatalf("unexpected answer: %q", result.Answer)
	}
}

func TestClient_ExecuteBroadcastsSyncAndAcceptsFailedTx(t *testing.T) {
	w := testWallet(t)

	client, _ := newTestClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/cosmos/auth/"):
			fmt.Fprint(rw, `{"account":{"account_number":"1","sequence":"0"}}`)
		case r.URL.Path == "/cosmos/tx/v1beta1/txs" && r.Method == http.MethodPost:
			var req broadcastRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("bad broadcast body: %v", err)
			}
			if req.Mode != "BROADCAST_MODE_SYNC" {
				t.Fatalf("unexpected broadcast mode: %s", req.Mode)
			}
			if _, err := base64.StdEncoding.DecodeString(req.TxBytes); err != nil {
				t.Fatalf("tx_bytes is not base64: %v", err)
			}
			fmt.Fprint(rw, `{"tx_response":{"code":5,"txhash":"DEADBEEF","raw_log":"out of gas"}}`)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	exec := &ExecuteMsg{
		Contract: "secret1vkq022x4q8t8kx9de3r84u669l65xnwf2lg3e6",
		Msg:      []byte(`{}`),
	}
	tx, err := client.Execute(context.Background(), w, exec)
	if err != nil {
		t.Fatalf("Execute() must not error on non-zero code: %v", err)
	}
	if tx.Code != 5 || tx.TxHash != "DEADBEEF" {
		t.Fatalf("unexpected response: %+v", tx)
	}
	if tx.Succeeded() {
		t.Fatalf("code 5 must not count as success")
	}
}

func TestClient_GetTxNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code":5,"message":"tx not found"}`)
	}))

	if _, err := client.GetTx(context.Background(), "MISSING"); err == nil {
		t.Fatalf("expected error for unindexed tx")
	}
}

func TestClient_ErrorStatusIncludesBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"node is catching up"}`)
	}))

	_, err := client.Account(context.Background(), "secret1abc")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "node is catching up") {
		t.Fatalf("error should carry the response body, got: %v", err)
	}
}
