package services

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "erario/internal/errors"
	"erario/internal/models"
)

// checkScale rejects amounts finer than the stored precision, which the
// numeric columns would otherwise round silently.
func checkScale(field string, d decimal.Decimal) error {
	if !models.HasAmountScale(d) {
		return apperrors.Newf(apperrors.ErrInvalidInput,
			"%s %s has more than %d decimal places", field, d.String(), models.AmountScale)
	}
	return nil
}

// formatAmount renders an amount with two decimals and thousands separators,
// e.g. 5000 -> "5,000.00".
func formatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
