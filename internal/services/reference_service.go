package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "erario/internal/errors"
	"erario/internal/models"
)

// sequenceWidth is the zero-padded width of the sequence part of a reference.
const sequenceWidth = 5

var errMalformedReference = errors.New("malformed transaction reference")

// FormatReference builds a reference such as TRX-G-2025-00007.
func FormatReference(prefix string, fiscalYear int, seq int64) string {
	return fmt.Sprintf("%s-%d-%0*d", prefix, fiscalYear, sequenceWidth, seq)
}

// ParseReference splits a reference into its prefix, fiscal year and sequence.
func ParseReference(reference string) (prefix string, fiscalYear int, seq int64, err error) {
	parts := strings.Split(reference, "-")
	if len(parts) < 3 {
		return "", 0, 0, fmt.Errorf("%w: %q", errMalformedReference, reference)
	}
	n := len(parts)
	fiscalYear, err = strconv.Atoi(parts[n-2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %q", errMalformedReference, reference)
	}
	seq, err = strconv.ParseInt(parts[n-1], 10, 64)
	if err != nil || seq < 0 {
		return "", 0, 0, fmt.Errorf("%w: %q", errMalformedReference, reference)
	}
	return strings.Join(parts[:n-2], "-"), fiscalYear, seq, nil
}

// referenceService hands out per prefix and fiscal year sequence numbers from
// the reference_sequences counter table.
type referenceService struct {
	db *gorm.DB
}

// NewReferenceService creates a new ReferenceGenerator backed by db.
func NewReferenceService(db *gorm.DB) ReferenceGenerator {
	return &referenceService{db: db}
}

// Next advances the counter for the type's prefix and fiscal year and returns
// the formatted reference. The increment runs in its own short transaction so
// the counter row is only locked for the bump itself, never for the caller's
// unit of work. A number whose unit later fails is not reissued, so committed
// references are unique and increasing but may have gaps.
func (s *referenceService) Next(ctx context.Context, txType models.TransactionType, fiscalYear int) (string, error) {
	if !txType.IsValid() {
		return "", apperrors.Newf(apperrors.ErrInvalidInput, "unknown transaction type %q", txType)
	}
	prefix := txType.ReferencePrefix()

	var seq models.ReferenceSequence
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ReferenceSequence{}).
			Where("prefix = ? AND fiscal_year = ?", prefix, fiscalYear).
			Update("last_value", gorm.Expr("last_value + 1"))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			seed, err := highestIssued(tx, prefix, fiscalYear)
			if err != nil {
				return err
			}
			// A concurrent first caller may insert the row between our UPDATE and
			// this INSERT; the conflict clause turns that into an increment.
			row := models.ReferenceSequence{Prefix: prefix, FiscalYear: fiscalYear, LastValue: seed + 1}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "prefix"}, {Name: "fiscal_year"}},
				DoUpdates: clause.Assignments(map[string]any{
					"last_value": gorm.Expr("reference_sequences.last_value + 1"),
				}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}

		return tx.Where("prefix = ? AND fiscal_year = ?", prefix, fiscalYear).First(&seq).Error
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return FormatReference(prefix, fiscalYear, seq.LastValue), nil
}

// highestIssued returns the largest sequence already stored for prefix and
// year, so a fresh counter row continues after references imported before
// the counter existed. Sequences are zero-padded to a minimum width, so a
// longer reference always carries the larger number.
func highestIssued(tx *gorm.DB, prefix string, fiscalYear int) (int64, error) {
	var refs []string
	pattern := fmt.Sprintf("%s-%d-%%", prefix, fiscalYear)
	if err := tx.Model(&models.Transaction{}).
		Where("reference LIKE ?", pattern).
		Order("LENGTH(reference) DESC").
		Order("reference DESC").
		Limit(1).
		Pluck("reference", &refs).Error; err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}
	_, _, seq, err := ParseReference(refs[0])
	if err != nil {
		return 0, err
	}
	return seq, nil
}
