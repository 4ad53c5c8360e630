package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DomeLiquid/paylink/core"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// fakeRPC answers JSON-RPC calls from a method -> result table.
func fakeRPC(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected method %s", req.Method)
			http.Error(w, "unexpected method", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNativeBalance(t *testing.T) {
	srv := fakeRPC(t, map[string]string{
		"getBalance": `{"context":{"slot":1},"value":1500000000}`,
	})
	b := NewSolanaBalances(srv.URL)

	sol, err := core.GetAsset(core.AssetSOL)
	require.NoError(t, err)

	got, err := b.GetBalance(context.Background(), solana.NewWallet().PublicKey().String(), sol)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), got)
}

func TestTokenBalance(t *testing.T) {
	account := solana.NewWallet().PublicKey().String()
	srv := fakeRPC(t, map[string]string{
		"getTokenAccountsByOwner": `{"context":{"slot":1},"value":[{"pubkey":"` + account + `","account":{"data":["","base64"],"executable":false,"lamports":2039280,"owner":"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA","rentEpoch":0}}]}`,
		"getTokenAccountBalance":  `{"context":{"slot":1},"value":{"amount":"12500000","decimals":6,"uiAmount":12.5,"uiAmountString":"12.5"}}`,
	})
	b := NewSolanaBalances(srv.URL)

	usdc, err := core.GetAsset(core.AssetUSDC)
	require.NoError(t, err)

	got, err := b.GetBalance(context.Background(), solana.NewWallet().PublicKey().String(), usdc)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_500_000), got)
}

func TestOperatorPreflight(t *testing.T) {
	srv := fakeRPC(t, map[string]string{
		"getBalance": `{"context":{"slot":1},"value":1000000000}`,
	})
	guard := core.NewOperatorGuard(core.NewBalanceGuard(core.DefaultFeeEngine(), nil),
		NewSolanaBalances(srv.URL), solana.NewWallet().PublicKey().String())

	ctx := context.Background()
	assert.NoError(t, guard.Preflight(ctx, 900_000_000, core.AssetSOL, core.OperationWithdraw))
	assert.ErrorIs(t, guard.Preflight(ctx, core.LAMPORTS_PER_SOL, core.AssetSOL, core.OperationDeposit), core.ErrInsufficientBalance)
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress(solana.NewWallet().PublicKey().String()))
	assert.ErrorIs(t, ValidateAddress("not-an-address"), core.ErrInvalidRecipient)
	assert.ErrorIs(t, ValidateAddress(""), core.ErrInvalidRecipient)

	_, err := NewSolanaBalances("http://127.0.0.1:0").GetBalance(context.Background(), "bad", core.Asset{Type: core.AssetSOL})
	assert.ErrorIs(t, err, core.ErrInvalidRecipient)
}
