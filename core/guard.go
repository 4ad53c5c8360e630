package core

import (
	"context"

	"github.com/pkg/errors"
)

type (
	// BalanceFetcher looks up the spendable balance of an on-chain account.
	BalanceFetcher interface {
		GetBalance(ctx context.Context, address string, asset Asset) (uint64, error)
	}

	GuardParams struct {
		// native transaction fee the funding account floats
		NetworkFee   uint64 `json:"networkFee"`
		SafetyBuffer uint64 `json:"safetyBuffer"`
	}

	BalanceGuard struct {
		Fees   *FeeEngine
		Params map[AssetType]GuardParams
	}
)

func DefaultGuardParams() map[AssetType]GuardParams {
	return map[AssetType]GuardParams{
		AssetSOL:  {NetworkFee: DEFAULT_NETWORK_FEE_ESTIMATE, SafetyBuffer: DEFAULT_SOL_SAFETY_BUFFER},
		AssetUSDC: {},
		AssetUSDT: {},
	}
}

func NewBalanceGuard(fees *FeeEngine, params map[AssetType]GuardParams) *BalanceGuard {
	if params == nil {
		params = DefaultGuardParams()
	}
	return &BalanceGuard{Fees: fees, Params: params}
}

// Required returns how much the funding account must hold for the operation.
//
//	deposit:  amount + base fee + owner fee + network fee + buffer
//	withdraw: amount + buffer
func (g *BalanceGuard) Required(amount uint64, asset AssetType, op Operation) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	schedule, err := g.Fees.Schedule(asset)
	if err != nil {
		return 0, err
	}
	params := g.Params[asset]

	required := UnitsToDecimal(amount).Add(UnitsToDecimal(params.SafetyBuffer))
	switch op {
	case OperationDeposit:
		split, err := g.Fees.ComputeDepositSplit(amount)
		if err != nil {
			return 0, err
		}
		required = required.
			Add(UnitsToDecimal(schedule.BaseFee)).
			Add(UnitsToDecimal(split.OwnerFee)).
			Add(UnitsToDecimal(params.NetworkFee))
	case OperationWithdraw:
	default:
		return 0, errors.Errorf("unknown operation %q", op)
	}
	return DecimalToUnits(required)
}

// AssertSufficientBalance is a side-effect free precondition check.
func (g *BalanceGuard) AssertSufficientBalance(balance, amount uint64, asset AssetType, op Operation) error {
	required, err := g.Required(amount, asset, op)
	if err != nil {
		return err
	}
	if balance < required {
		return &InsufficientBalanceError{
			Operation: op,
			Asset:     asset,
			Required:  required,
			Available: balance,
			Shortfall: required - balance,
		}
	}
	return nil
}

// OperatorGuard runs the balance guard against the live balance of the
// operator-controlled funding account.
type OperatorGuard struct {
	guard   *BalanceGuard
	fetcher BalanceFetcher
	address string
}

func NewOperatorGuard(guard *BalanceGuard, fetcher BalanceFetcher, operatorAddress string) *OperatorGuard {
	return &OperatorGuard{guard: guard, fetcher: fetcher, address: operatorAddress}
}

func (o *OperatorGuard) Preflight(ctx context.Context, amount uint64, assetType AssetType, op Operation) error {
	asset, err := GetAsset(assetType)
	if err != nil {
		return err
	}
	balance, err := o.fetcher.GetBalance(ctx, o.address, asset)
	if err != nil {
		return errors.Wrapf(err, "fetch %s balance of %s", asset, o.address)
	}
	return o.guard.AssertSufficientBalance(balance, amount, assetType, op)
}
