package cli

import (
	"encoding/base64"
	"fmt"

	"github.com/DomeLiquid/paylink/cmd"
	"github.com/DomeLiquid/paylink/core"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	createAmount   string
	createAsset    string
	createCreator  string
	createSpendKey string

	depositRef       string
	depositDepositor string

	claimRecipient string
	claimRef       string
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a payment link.",
	Long: `Create a payment link for a fixed amount and print its id.

Example:
  paylink create --asset SOL --amount 0.1`,
	RunE: func(c *cobra.Command, args []string) error {
		assetType, err := core.ParseAssetType(createAsset)
		if err != nil {
			return err
		}
		asset, err := core.GetAsset(assetType)
		if err != nil {
			return err
		}
		amount, err := asset.ParseAmount(createAmount)
		if err != nil {
			return err
		}
		var spendKey []byte
		if createSpendKey != "" {
			if spendKey, err = base64.StdEncoding.DecodeString(createSpendKey); err != nil {
				return errors.Wrap(err, "--spend-key must be base64")
			}
		}

		return cmd.WithLedger(c.Context(), func(ledger *core.Ledger) error {
			link, err := ledger.Create(c.Context(), core.CreateLinkParams{
				Amount:         amount,
				AssetType:      assetType,
				CreatorAddress: createCreator,
				SpendKey:       spendKey,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "link: %s\nurl:  %s/link/%s\n", link.Id, cmd.Cfg.Server.BaseURL, link.Id)
			return nil
		})
	},
}

var DepositCmd = &cobra.Command{
	Use:   "deposit <link-id>",
	Short: "Record the deposit proof of a link.",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.WithLedger(c.Context(), func(ledger *core.Ledger) error {
			link, err := ledger.RecordDeposit(c.Context(), args[0], depositRef, depositDepositor)
			if err != nil {
				return err
			}
			return cmd.PrintJSON(c.OutOrStdout(), link.Public())
		})
	},
}

var ClaimCmd = &cobra.Command{
	Use:   "claim <link-id>",
	Short: "Record a completed withdrawal and mark the link claimed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.WithLedger(c.Context(), func(ledger *core.Ledger) error {
			result, err := ledger.Claim(c.Context(), args[0], claimRecipient, claimRef)
			if err != nil {
				return err
			}
			result.Link = result.Link.Public()
			return cmd.PrintJSON(c.OutOrStdout(), result)
		})
	},
}

var ShowCmd = &cobra.Command{
	Use:   "show <link-id>",
	Short: "Print a link and its transaction history.",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.WithLedger(c.Context(), func(ledger *core.Ledger) error {
			link, err := ledger.Get(c.Context(), args[0])
			if err != nil {
				return err
			}
			records, err := ledger.Transactions(c.Context(), args[0])
			if err != nil {
				return err
			}
			out := link.Public()
			out.Transactions = records
			return cmd.PrintJSON(c.OutOrStdout(), struct {
				*core.PaymentLink
				State core.LinkState `json:"state"`
			}{out, link.State()})
		})
	},
}

var DeleteCmd = &cobra.Command{
	Use:   "delete <link-id>",
	Short: "Delete a link and its transaction records.",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return cmd.WithLedger(c.Context(), func(ledger *core.Ledger) error {
			if err := ledger.Delete(c.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	CreateCmd.Flags().StringVar(&createAmount, "amount", "", "amount in display units, e.g. 0.1")
	CreateCmd.Flags().StringVar(&createAsset, "asset", "SOL", "asset type")
	CreateCmd.Flags().StringVar(&createCreator, "creator", "", "creator address")
	CreateCmd.Flags().StringVar(&createSpendKey, "spend-key", "", "base64 spend key to seal into the link")
	_ = CreateCmd.MarkFlagRequired("amount")

	DepositCmd.Flags().StringVar(&depositRef, "ref", "", "deposit transaction reference")
	DepositCmd.Flags().StringVar(&depositDepositor, "depositor", "", "depositor address")
	_ = DepositCmd.MarkFlagRequired("ref")

	ClaimCmd.Flags().StringVar(&claimRecipient, "recipient", "", "recipient address")
	ClaimCmd.Flags().StringVar(&claimRef, "ref", "", "withdraw transaction reference")
	_ = ClaimCmd.MarkFlagRequired("recipient")
	_ = ClaimCmd.MarkFlagRequired("ref")

	cmd.RootCmd.AddCommand(CreateCmd, DepositCmd, ClaimCmd, ShowCmd, DeleteCmd)
}
