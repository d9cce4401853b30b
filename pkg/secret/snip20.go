package secret

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// snip20AllowanceQuery is the SNIP-20 viewing-key allowance query
type snip20AllowanceQuery struct {
	Allowance struct {
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
		Key     string `json:"key"`
	} `json:"allowance"`
}

type snip20AllowanceResponse struct {
	Allowance struct {
		Owner      string `json:"owner"`
		Spender    string `json:"spender"`
		Allowance  string `json:"allowance"`
		Expiration *int64 `json:"expiration"`
	} `json:"allowance"`
	ViewingKeyError *struct {
		Msg string `json:"msg"`
	} `json:"viewing_key_error"`
}

// Snip20Allowance queries the allowance an owner has granted a spender on a
// SNIP-20 token, authenticated with the owner's viewing key.
func (c *Client) Snip20Allowance(ctx context.Context, contract, owner, spender, viewingKey string) (decimal.Decimal, error) {
	var query snip20AllowanceQuery
	query.Allowance.Owner = owner
	query.Allowance.Spender = spender
	query.Allowance.Key = viewingKey

	var resp snip20AllowanceResponse
	if err := c.SmartQuery(ctx, contract, &query, &resp); err != nil {
		return decimal.Zero, err
	}
	if resp.ViewingKeyError != nil {
		return decimal.Zero, fmt.Errorf("viewing key rejected: %s", resp.ViewingKeyError.Msg)
	}

	amount, err := decimal.NewFromString(resp.Allowance.Allowance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad allowance amount %q: %w", resp.Allowance.Allowance, err)
	}
	return amount, nil
}

// SendFromParams describes a SNIP-20 send_from execution: move tokens from
// owner to recipient and forward msg to the recipient contract.
type SendFromParams struct {
	Owner             string
	Recipient         string
	RecipientCodeHash string
	Amount            string
	Msg               string // base64-encoded receiver payload
	Padding           string
}

// SendFromMsg builds the JSON execute payload for a SNIP-20 send_from
func SendFromMsg(p SendFromParams) ([]byte, error) {
	type sendFrom struct {
		Owner             string `json:"owner"`
		Recipient         string `json:"recipient"`
		RecipientCodeHash string `json:"recipient_code_hash,omitempty"`
		Amount            string `json:"amount"`
		Msg               string `json:"msg,omitempty"`
		Padding           string `json:"padding,omitempty"`
	}
	payload := struct {
		SendFrom sendFrom `json:"send_from"`
	}{
		SendFrom: sendFrom{
			Owner:             p.Owner,
			Recipient:         p.Recipient,
			RecipientCodeHash: p.RecipientCodeHash,
			Amount:            p.Amount,
			Msg:               p.Msg,
			Padding:           p.Padding,
		},
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode send_from: %w", err)
	}
	return msg, nil
}
