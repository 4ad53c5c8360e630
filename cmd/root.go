package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/DomeLiquid/paylink/chain"
	"github.com/DomeLiquid/paylink/config"
	"github.com/DomeLiquid/paylink/core"
	"github.com/DomeLiquid/paylink/store"
	"github.com/DomeLiquid/paylink/vault"
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Cfg is loaded before any subcommand runs.
	Cfg     *config.Config
	cfgFile string
)

var RootCmd = &cobra.Command{
	Use:           "paylink",
	Short:         "Payment links backed by a shielded pool.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		Cfg = cfg
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./configs/config.yaml or ./config.yaml)")
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		Logger().Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func Logger() *zerolog.Logger {
	if Cfg == nil {
		return core.NewLogger("info", false)
	}
	return core.NewLogger(Cfg.Log.Level, Cfg.Log.Pretty)
}

func OpenStore(ctx context.Context) (*store.GormStore, error) {
	s, err := store.Open(Cfg.Database.Driver, Cfg.Database.DSN, Cfg.Database.Debug)
	if err != nil {
		return nil, err
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return s, nil
}

// NewLedger builds the ledger from config. The vault is only wired when an
// app salt is configured.
func NewLedger(s core.Store, log core.Log) (*core.Ledger, error) {
	fees, err := Cfg.FeeEngine()
	if err != nil {
		return nil, err
	}

	var kv core.KeyVault
	if Cfg.Vault.AppSalt != "" {
		v, err := vault.New(Cfg.Vault.AppSalt, vault.WithIterations(Cfg.Vault.Iterations))
		if err != nil {
			return nil, errors.Wrap(err, "vault.iterations")
		}
		kv = v
	}
	return core.NewLedger(clock.New(), s, fees, kv, log), nil
}

// NewOperatorGuard returns nil when no operator address is configured.
func NewOperatorGuard(fees *core.FeeEngine) (*core.OperatorGuard, error) {
	if Cfg.Solana.OperatorAddress == "" {
		return nil, nil
	}
	if err := chain.ValidateAddress(Cfg.Solana.OperatorAddress); err != nil {
		return nil, errors.Wrap(err, "solana.operator_address")
	}
	params, err := Cfg.GuardParams()
	if err != nil {
		return nil, err
	}
	return core.NewOperatorGuard(core.NewBalanceGuard(fees, params),
		chain.NewSolanaBalances(Cfg.Solana.RPCURL), Cfg.Solana.OperatorAddress), nil
}

// WithLedger opens the store, runs fn against a ledger and closes the store.
func WithLedger(ctx context.Context, fn func(ledger *core.Ledger) error) error {
	s, err := OpenStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ledger, err := NewLedger(s, Logger())
	if err != nil {
		return err
	}
	return fn(ledger)
}

func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
