package chain

import (
	"context"
	"strconv"

	"github.com/DomeLiquid/paylink/core"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

var _ core.BalanceFetcher = (*SolanaBalances)(nil)

// SolanaBalances reads spendable balances over Solana JSON-RPC. Native SOL
// comes from getBalance, SPL tokens are summed over every token account the
// owner holds for the mint.
type SolanaBalances struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

func NewSolanaBalances(rpcURL string) *SolanaBalances {
	return &SolanaBalances{
		client:     rpc.New(rpcURL),
		commitment: rpc.CommitmentConfirmed,
	}
}

func (b *SolanaBalances) GetBalance(ctx context.Context, address string, asset core.Asset) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, errors.Wrapf(core.ErrInvalidRecipient, "%s: %v", address, err)
	}

	if asset.IsNative() {
		out, err := b.client.GetBalance(ctx, owner, b.commitment)
		if err != nil {
			return 0, errors.Wrap(err, "getBalance")
		}
		return out.Value, nil
	}

	mint, err := solana.PublicKeyFromBase58(asset.Mint)
	if err != nil {
		return 0, errors.Wrapf(err, "mint of %s", asset)
	}
	accounts, err := b.client.GetTokenAccountsByOwner(ctx, owner, &rpc.GetTokenAccountsConfig{
		Mint: &mint,
	}, &rpc.GetTokenAccountsOpts{
		Commitment: b.commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		return 0, errors.Wrap(err, "getTokenAccountsByOwner")
	}

	var total uint64
	for _, account := range accounts.Value {
		out, err := b.client.GetTokenAccountBalance(ctx, account.Pubkey, b.commitment)
		if err != nil {
			return 0, errors.Wrapf(err, "getTokenAccountBalance %s", account.Pubkey)
		}
		if out.Value == nil {
			continue
		}
		amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "token amount %q", out.Value.Amount)
		}
		total += amount
	}
	return total, nil
}

// ValidateAddress reports whether s is a base58 encoded 32 byte public key.
func ValidateAddress(s string) error {
	if _, err := solana.PublicKeyFromBase58(s); err != nil {
		return errors.Wrapf(core.ErrInvalidRecipient, "%q", s)
	}
	return nil
}
