// Package shade builds the swap execute messages for the Shade Protocol
// router. The swap routes are fixed: sUSDC -> sSCRT for buys and the
// reverse path for sells, each pre-encoded as the base64 receiver payload
// the router expects.
package shade

import (
	"fmt"

	"github.com/scrtlabs/trading-middleware/pkg/secret"
)

// Mainnet contracts involved in the swap routes
const (
	SscrtAddress  = "secret1k0jntykt7e4g3y88ltc60czgjuqdy4c9e8fzek"
	SscrtCodeHash = "af74387e276be8874f07bec3a87023ee49b0e7ebe08178c49d0a49c3c98ed60e"

	SusdcAddress  = "secret1vkq022x4q8t8kx9de3r84u669l65xnwf2lg3e6"
	SusdcCodeHash = "638a3e1d50175fbcb8373cf801565283e3eb23d88a9b7b7f99fcc5eb1e6b561e"

	RouterAddress = "secret1pjhdug87nxzv0esxasmeyfsucaj98pw4334wyc"
)

// Pre-encoded swap_tokens_for_exact route payloads (expected_return "1",
// three-hop path through the Shade pairs). Buy goes sUSDC -> sSCRT, sell is
// the same path reversed.
const (
	buyRouteMsg = "eyJzd2FwX3Rva2Vuc19mb3JfZXhhY3QiOnsiZXhwZWN0ZWRfcmV0dXJuIjoiMSIsInBhdGgiOlt7ImFkZHIiOiJzZWNyZXQxcXo1N3BlYTRrM25kbWpweTZ0ZGpjdXE0dHpydmpuMGFwaGNhMGsiLCJjb2RlX2hhc2giOiJlODgxNjUzNTNkNWQ3ZTc4NDdmMmM4NDEzNGMzZjc4NzFiMmVlZTY4NGZmYWM5ZmNmOGQ5OWE0ZGEzOWRjMmYyIn0seyJhZGRyIjoic2VjcmV0MWE2ZWZuejl5NzAycGN0bW56ZWp6a2pkeXEwbTYyanlwd3NmazkyIiwiY29kZV9oYXNoIjoiZTg4MTY1MzUzZDVkN2U3ODQ3ZjJjODQxMzRjM2Y3ODcxYjJlZWU2ODRmZmFjOWZjZjhkOTlhNGRhMzlkYzJmMiJ9LHsiYWRkciI6InNlY3JldDF5Nnc0NWZ3ZzlsbjlweGQ2cXlzOGx0amxudHU5eGE0ZjJkZTdzcCIsImNvZGVfaGFzaCI6ImU4ODE2NTM1M2Q1ZDdlNzg0N2YyYzg0MTM0YzNmNzg3MWIyZWVlNjg0ZmZhYzlmY2Y4ZDk5YTRkYTM5ZGMyZjIifV19fQ=="

	sellRouteMsg = "eyJzd2FwX3Rva2Vuc19mb3JfZXhhY3QiOnsiZXhwZWN0ZWRfcmV0dXJuIjoiMSIsInBhdGgiOlt7ImFkZHIiOiJzZWNyZXQxeTZ3NDVmd2c5bG45cHhkNnF5czhsdGpsbnR1OXhhNGYyZGU3c3AiLCJjb2RlX2hhc2giOiJlODgxNjUzNTNkNWQ3ZTc4NDdmMmM4NDEzNGMzZjc4NzFiMmVlZTY4NGZmYWM5ZmNmOGQ5OWE0ZGEzOWRjMmYyIn0seyJhZGRyIjoic2VjcmV0MWE2ZWZuejl5NzAycGN0bW56ZWp6a2pkeXEwbTYyanlwd3NmazkyIiwiY29kZV9oYXNoIjoiZTg4MTY1MzUzZDVkN2U3ODQ3ZjJjODQxMzRjM2Y3ODcxYjJlZWU2ODRmZmFjOWZjZjhkOTlhNGRhMzlkYzJmMiJ9LHsiYWRkciI6InNlY3JldDFxejU3cGVhNGszbmRtanB5NnRkamN1cTR0enJ2am4wYXBoY2EwayIsImNvZGVfaGFzaCI6ImU4ODE2NTM1M2Q1ZDdlNzg0N2YyYzg0MTM0YzNmNzg3MWIyZWVlNjg0ZmZhYzlmY2Y4ZDk5YTRkYTM5ZGMyZjIifV19fQ=="

	buyPadding  = "Iq7w0EzEpkt"
	sellPadding = "Wur83ulCyYEvQ"
)

// BuyMsg builds the execute message that swaps amountUsdc (uusdc) of the
// owner's sUSDC for sSCRT via the router. The agent broadcasts it using its
// send_from allowance on the owner's tokens.
func BuyMsg(amountUsdc, owner string) (*secret.ExecuteMsg, error) {
	msg, err := secret.SendFromMsg(secret.SendFromParams{
		Owner:     owner,
		Recipient: RouterAddress,
		Amount:    amountUsdc,
		Msg:       buyRouteMsg,
		Padding:   buyPadding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build buy message: %w", err)
	}
	return &secret.ExecuteMsg{
		Contract: SusdcAddress,
		CodeHash: SusdcCodeHash,
		Msg:      msg,
	}, nil
}

// SellMsg builds the execute message that swaps amountScrt (uscrt) of the
// owner's sSCRT for sUSDC via the router.
func SellMsg(amountScrt, owner string) (*secret.ExecuteMsg, error) {
	msg, err := secret.SendFromMsg(secret.SendFromParams{
		Owner:     owner,
		Recipient: RouterAddress,
		Amount:    amountScrt,
		Msg:       sellRouteMsg,
		Padding:   sellPadding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build sell message: %w", err)
	}
	return &secret.ExecuteMsg{
		Contract: SscrtAddress,
		CodeHash: SscrtCodeHash,
		Msg:      msg,
	}, nil
}
