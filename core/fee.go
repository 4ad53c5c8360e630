package core

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type (
	FeeSchedule struct {
		// absolute relay charge in the asset's base units
		BaseFee      uint64          `json:"baseFee"`
		WithdrawRate decimal.Decimal `json:"withdrawRate"`
	}

	FeeEngine struct {
		Schedules map[AssetType]FeeSchedule
		OwnerRate decimal.Decimal
	}

	FeeBreakdown struct {
		Asset         AssetType `json:"assetType"`
		Amount        uint64    `json:"amount"`
		BaseFee       uint64    `json:"baseFee"`
		PercentageFee uint64    `json:"percentageFee"`
		TotalFee      uint64    `json:"totalFee"`
		NetAmount     uint64    `json:"netAmount"`
	}

	DepositSplit struct {
		GrossAmount uint64 `json:"grossAmount"`
		OwnerFee    uint64 `json:"ownerFee"`
		PoolAmount  uint64 `json:"poolAmount"`
	}
)

func DefaultFeeEngine() *FeeEngine {
	return &FeeEngine{
		Schedules: map[AssetType]FeeSchedule{
			AssetSOL:  {BaseFee: DEFAULT_SOL_BASE_FEE, WithdrawRate: DEFAULT_WITHDRAW_FEE_RATE},
			AssetUSDC: {BaseFee: DEFAULT_SPL_BASE_FEE, WithdrawRate: DEFAULT_WITHDRAW_FEE_RATE},
			AssetUSDT: {BaseFee: DEFAULT_SPL_BASE_FEE, WithdrawRate: DEFAULT_WITHDRAW_FEE_RATE},
		},
		OwnerRate: DEFAULT_OWNER_FEE_RATE,
	}
}

func (fe *FeeEngine) Validate() error {
	one := decimal.NewFromInt(1)
	if fe.OwnerRate.IsNegative() || fe.OwnerRate.GreaterThanOrEqual(one) {
		return errors.Errorf("owner fee rate %s out of range [0, 1)", fe.OwnerRate)
	}
	for t, s := range fe.Schedules {
		if s.WithdrawRate.IsNegative() || s.WithdrawRate.GreaterThanOrEqual(one) {
			return errors.Errorf("withdraw rate %s for %s out of range [0, 1)", s.WithdrawRate, t)
		}
	}
	return nil
}

func (fe *FeeEngine) Schedule(asset AssetType) (FeeSchedule, error) {
	s, ok := fe.Schedules[asset]
	if !ok {
		return FeeSchedule{}, errors.Wrapf(ErrUnsupportedAsset, "no fee schedule for %q", asset)
	}
	return s, nil
}

// ComputeFee returns the withdrawal fee breakdown for amount. It fails with
// ErrAmountTooSmall when the fees would leave nothing for the recipient.
func (fe *FeeEngine) ComputeFee(amount uint64, asset AssetType) (FeeBreakdown, error) {
	if amount == 0 {
		return FeeBreakdown{}, ErrInvalidAmount
	}
	schedule, err := fe.Schedule(asset)
	if err != nil {
		return FeeBreakdown{}, err
	}

	pct, err := PercentageOf(amount, schedule.WithdrawRate)
	if err != nil {
		return FeeBreakdown{}, err
	}
	if schedule.BaseFee >= amount || pct >= amount-schedule.BaseFee {
		return FeeBreakdown{}, errors.Wrapf(ErrAmountTooSmall, "%d %s cannot cover base fee %d and percentage fee %d",
			amount, asset, schedule.BaseFee, pct)
	}

	total := schedule.BaseFee + pct
	return FeeBreakdown{
		Asset:         asset,
		Amount:        amount,
		BaseFee:       schedule.BaseFee,
		PercentageFee: pct,
		TotalFee:      total,
		NetAmount:     amount - total,
	}, nil
}

// ComputeDepositSplit takes the owner fee off the gross amount before the
// remainder enters the pool.
func (fe *FeeEngine) ComputeDepositSplit(gross uint64) (DepositSplit, error) {
	if gross == 0 {
		return DepositSplit{}, ErrInvalidAmount
	}
	ownerFee, err := PercentageOf(gross, fe.OwnerRate)
	if err != nil {
		return DepositSplit{}, err
	}
	return DepositSplit{
		GrossAmount: gross,
		OwnerFee:    ownerFee,
		PoolAmount:  gross - ownerFee,
	}, nil
}

// PercentageOf is floor(amount * rate) computed without floating point.
func PercentageOf(amount uint64, rate decimal.Decimal) (uint64, error) {
	if rate.IsNegative() {
		return 0, errors.Errorf("negative rate %s", rate)
	}
	return DecimalToUnits(UnitsToDecimal(amount).Mul(rate).Floor())
}
