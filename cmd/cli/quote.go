package cli

import (
	"fmt"
	"time"

	"github.com/DomeLiquid/paylink/cmd"
	"github.com/DomeLiquid/paylink/core"
	"github.com/DomeLiquid/paylink/handler"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	quoteAmount string
	quoteAsset  string

	preflightOperation string

	tokenSubject string
	tokenTTL     time.Duration
)

var QuoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Show the withdrawal fee breakdown and deposit split for an amount.",
	RunE: func(c *cobra.Command, args []string) error {
		asset, amount, err := parseAmount(quoteAsset, quoteAmount)
		if err != nil {
			return err
		}
		fees, err := cmd.Cfg.FeeEngine()
		if err != nil {
			return err
		}
		withdraw, err := fees.ComputeFee(amount, asset.Type)
		if err != nil {
			return err
		}
		deposit, err := fees.ComputeDepositSplit(amount)
		if err != nil {
			return err
		}

		w := c.OutOrStdout()
		fmt.Fprintf(w, "amount:         %s %s\n", asset.FormatUnits(withdraw.Amount), asset)
		fmt.Fprintf(w, "base fee:       %s\n", asset.FormatUnits(withdraw.BaseFee))
		fmt.Fprintf(w, "percentage fee: %s\n", asset.FormatUnits(withdraw.PercentageFee))
		fmt.Fprintf(w, "recipient gets: %s\n", asset.FormatUnits(withdraw.NetAmount))
		fmt.Fprintf(w, "owner fee:      %s (pool receives %s)\n", asset.FormatUnits(deposit.OwnerFee), asset.FormatUnits(deposit.PoolAmount))
		return nil
	},
}

var PreflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check that the operator account can fund a deposit or withdrawal.",
	RunE: func(c *cobra.Command, args []string) error {
		op, err := core.ParseOperation(preflightOperation)
		if err != nil {
			return err
		}
		asset, amount, err := parseAmount(quoteAsset, quoteAmount)
		if err != nil {
			return err
		}
		fees, err := cmd.Cfg.FeeEngine()
		if err != nil {
			return err
		}
		guard, err := cmd.NewOperatorGuard(fees)
		if err != nil {
			return err
		}
		if guard == nil {
			return errors.New("solana.operator_address is not configured")
		}
		if err := guard.Preflight(c.Context(), amount, asset.Type, op); err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "operator can fund %s of %s %s\n", op, asset.FormatUnits(amount), asset)
		return nil
	},
}

var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an operator token for the /admin routes.",
	RunE: func(c *cobra.Command, args []string) error {
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cmd.Cfg.Auth.TokenTTL
		}
		auth, err := handler.NewAuth(cmd.Cfg.Auth.JWTSecret, ttl)
		if err != nil {
			return errors.Wrap(err, "auth.jwt_secret")
		}
		token, err := auth.GenerateToken(tokenSubject)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), token)
		return nil
	},
}

func parseAmount(assetName, amount string) (core.Asset, uint64, error) {
	assetType, err := core.ParseAssetType(assetName)
	if err != nil {
		return core.Asset{}, 0, err
	}
	asset, err := core.GetAsset(assetType)
	if err != nil {
		return core.Asset{}, 0, err
	}
	units, err := asset.ParseAmount(amount)
	if err != nil {
		return core.Asset{}, 0, err
	}
	return asset, units, nil
}

func init() {
	for _, c := range []*cobra.Command{QuoteCmd, PreflightCmd} {
		c.Flags().StringVar(&quoteAmount, "amount", "", "amount in display units")
		c.Flags().StringVar(&quoteAsset, "asset", "SOL", "asset type")
		_ = c.MarkFlagRequired("amount")
	}
	PreflightCmd.Flags().StringVar(&preflightOperation, "operation", "withdraw", "deposit or withdraw")

	TokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	TokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")

	cmd.RootCmd.AddCommand(QuoteCmd, PreflightCmd, TokenCmd)
}
