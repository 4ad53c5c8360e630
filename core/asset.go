package core

import (
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetSOL  AssetType = "SOL"
	AssetUSDC AssetType = "USDC"
	AssetUSDT AssetType = "USDT"
)

type Asset struct {
	Type     AssetType `json:"type"`
	Symbol   string    `json:"symbol"`
	Decimals int32     `json:"decimals"`
	// empty for the native asset
	Mint string `json:"mint,omitempty"`
}

var (
	assetsMu sync.RWMutex
	assets   = map[AssetType]Asset{
		AssetSOL:  {Type: AssetSOL, Symbol: "SOL", Decimals: 9},
		AssetUSDC: {Type: AssetUSDC, Symbol: "USDC", Decimals: 6, Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
		AssetUSDT: {Type: AssetUSDT, Symbol: "USDT", Decimals: 6, Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"},
	}
)

// RegisterAsset adds or replaces an SPL-like asset in the registry.
func RegisterAsset(asset Asset) error {
	if asset.Type == "" || asset.Decimals < 0 {
		return errors.Errorf("invalid asset %q", asset.Type)
	}
	assetsMu.Lock()
	defer assetsMu.Unlock()
	assets[asset.Type] = asset
	return nil
}

func GetAsset(t AssetType) (Asset, error) {
	assetsMu.RLock()
	defer assetsMu.RUnlock()
	asset, ok := assets[t]
	if !ok {
		return Asset{}, errors.Wrapf(ErrUnsupportedAsset, "%q", t)
	}
	return asset, nil
}

// ParseAssetType accepts the symbol in any case.
func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := GetAsset(t); err != nil {
		return "", err
	}
	return t, nil
}

func ListAssets() []Asset {
	assetsMu.RLock()
	defer assetsMu.RUnlock()
	list := make([]Asset, 0, len(assets))
	for _, a := range assets {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Type < list[j].Type })
	return list
}

func (a Asset) IsNative() bool {
	return a.Mint == ""
}

func (a Asset) String() string {
	return string(a.Type)
}

// FormatUnits renders base units as a human readable decimal string.
func (a Asset) FormatUnits(units uint64) string {
	return UnitsToDecimal(units).Shift(-a.Decimals).String()
}

// ParseAmount converts a human readable amount into base units. Amounts with
// more fractional digits than the asset supports are rejected.
func (a Asset) ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrap(ErrInvalidAmount, err.Error())
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	units := d.Shift(a.Decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, errors.Wrapf(ErrInvalidAmount, "%s has more than %d decimals", s, a.Decimals)
	}
	return DecimalToUnits(units)
}

func UnitsToDecimal(units uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), 0)
}

// DecimalToUnits truncates d to an integer and checks it fits in uint64.
func DecimalToUnits(d decimal.Decimal) (uint64, error) {
	i := d.Truncate(0).BigInt()
	if i.Sign() < 0 || !i.IsUint64() {
		return 0, errors.Wrapf(ErrInvalidAmount, "%s out of range", d)
	}
	return i.Uint64(), nil
}
