package models

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMajor 最小货币单位换算（美分）
const MinorUnitsPerMajor = 100

var (
	// ErrMoneyPrecision 金额精度超过最小货币单位
	ErrMoneyPrecision = errors.New("amount has more than 2 decimal places")
	// ErrMoneyOutOfRange 金额超出最小货币单位可表示范围
	ErrMoneyOutOfRange = errors.New("amount out of range")

	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// Money 展示用金额（保留 2 位小数），存储层一律使用最小货币单位整数
type Money struct {
	decimal.Decimal
}

// MoneyFromMinorUnits 由最小货币单位构造展示金额
func MoneyFromMinorUnits(minor int64) Money {
	return Money{Decimal: decimal.New(minor, 0).Div(decimal.NewFromInt(MinorUnitsPerMajor)).Round(2)}
}

// MinorUnits 转回最小货币单位，调用方需保证金额来自 ParseMoney 或 MoneyFromMinorUnits
func (m Money) MinorUnits() int64 {
	return m.Decimal.Mul(decimal.NewFromInt(MinorUnitsPerMajor)).Round(0).IntPart()
}

// ToMinorUnits 转回最小货币单位，超出 int64 范围时返回错误
func (m Money) ToMinorUnits() (int64, error) {
	minor := m.Decimal.Mul(decimal.NewFromInt(MinorUnitsPerMajor))
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return 0, ErrMoneyOutOfRange
	}
	return minor.Round(0).IntPart(), nil
}

// MarshalJSON 统一输出 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}

// ParseMoney 解析 "1234.50" 形式的金额，不足一分的精度与越界金额直接拒绝
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, err
	}
	if !d.Equal(d.Truncate(2)) {
		return Money{}, ErrMoneyPrecision
	}
	m := Money{Decimal: d}
	if _, err := m.ToMinorUnits(); err != nil {
		return Money{}, err
	}
	return m, nil
}
