package domain

import "github.com/shopspring/decimal"

// SurchargeMultiplier — фиксированная надбавка к сумме цен товаров.
var SurchargeMultiplier = decimal.RequireFromString("1.2")

// CurrencyPrecision — количество знаков после запятой в цене и итоговой сумме.
const CurrencyPrecision = 2

// MaxPrice — наибольшая цена товара, которую вмещает NUMERIC(12, 2).
var MaxPrice = decimal.RequireFromString("9999999999.99")

// ValidPrice сообщает, что цена положительна, укладывается в MaxPrice
// и не содержит долей меньше копейки.
func ValidPrice(price decimal.Decimal) bool {
	return price.IsPositive() &&
		price.LessThanOrEqual(MaxPrice) &&
		price.Equal(price.Truncate(CurrencyPrecision))
}

// CalculateTotal суммирует цены товаров, умножает на надбавку и округляет
// до копеек по правилу банковского округления (half-even).
func CalculateTotal(products []Product) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range products {
		sum = sum.Add(p.Price)
	}
	return sum.Mul(SurchargeMultiplier).RoundBank(CurrencyPrecision)
}
