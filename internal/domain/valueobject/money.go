package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/creator-escrow/internal/pkg/apperror"
)

// MoneyScale - число знаков после запятой для всех сумм (копейки/пайсы).
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// NewAmount проверяет, что сумма положительна и не содержит долей меньше минимальной единицы.
func NewAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.InvalidAmount("сумма должна быть больше нуля")
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return decimal.Zero, apperror.InvalidAmount("сумма не может содержать больше двух знаков после запятой")
	}
	return amount, nil
}

// FeeSplit - разделение суммы заказа на комиссию площадки и долю исполнителя.
type FeeSplit struct {
	Total         decimal.Decimal
	PlatformFee   decimal.Decimal
	SellerPayable decimal.Decimal
}

// SplitFee считает комиссию как процент от суммы, округлённый до копеек.
// Доля исполнителя всегда равна total − fee, поэтому сумма частей совпадает с total.
func SplitFee(total, feePercent decimal.Decimal) FeeSplit {
	fee := total.Mul(feePercent).Div(hundred).Round(MoneyScale)
	return FeeSplit{
		Total:         total,
		PlatformFee:   fee,
		SellerPayable: total.Sub(fee),
	}
}

// SplitEqual делит сумму на n равных долей. Доли усечены до копеек,
// остаток целиком достаётся последней доле.
func SplitEqual(amount decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	share := amount.Div(decimal.NewFromInt(int64(n))).Truncate(MoneyScale)
	parts := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = share
		allocated = allocated.Add(share)
	}
	parts[n-1] = amount.Sub(allocated)
	return parts
}

// ToMinorUnits переводит сумму в минимальные единицы валюты, в которых работает шлюз.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits - обратное преобразование.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -MoneyScale)
}
