package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

const promotionColumns = `
	id, store_info_id, name, description, discount_type, discount_value,
	minimum_purchase, maximum_discount, start_date, end_date,
	usage_limit, customer_usage_limit, is_active,
	applicable_category_ids, applicable_product_ids, codes,
	image_url, created_by, created_at, updated_at, deleted_at`

func scanPromotion(row interface{ Scan(...interface{}) error }) (*models.Promotion, error) {
	var promo models.Promotion
	var minPurchase, maxDiscount decimal.NullDecimal
	var usageLimit, customerLimit sql.NullInt64
	var categoryIDs, productIDs, codes []string
	var imageURL sql.NullString
	var createdBy uuid.NullUUID
	var deletedAt sql.NullTime

	err := row.Scan(
		&promo.ID, &promo.StoreInfoID, &promo.Name, &promo.Description,
		&promo.DiscountType, &promo.DiscountValue,
		&minPurchase, &maxDiscount, &promo.StartDate, &promo.EndDate,
		&usageLimit, &customerLimit, &promo.IsActive,
		pq.Array(&categoryIDs), pq.Array(&productIDs), pq.Array(&codes),
		&imageURL, &createdBy, &promo.CreatedAt, &promo.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if minPurchase.Valid {
		promo.MinimumPurchase = &minPurchase.Decimal
	}
	if maxDiscount.Valid {
		promo.MaximumDiscount = &maxDiscount.Decimal
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		promo.UsageLimit = &limit
	}
	if customerLimit.Valid {
		limit := int(customerLimit.Int64)
		promo.CustomerUsageLimit = &limit
	}
	if imageURL.Valid {
		promo.ImageURL = &imageURL.String
	}
	if createdBy.Valid {
		promo.CreatedBy = &createdBy.UUID
	}
	if deletedAt.Valid {
		promo.DeletedAt = &deletedAt.Time
	}

	promo.Codes = codes
	promo.ApplicableCategoryIDs, err = parseUUIDs(categoryIDs)
	if err != nil {
		return nil, err
	}
	promo.ApplicableProductIDs, err = parseUUIDs(productIDs)
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid in array column: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// GetPromotion retrieves a promotion by id, including soft-deleted rows.
func (s *Store) GetPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`

	promo, err := scanPromotion(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	return promo, nil
}

// ListPromotions retrieves a store's promotions, newest first.
func (s *Store) ListPromotions(ctx context.Context, storeInfoID uuid.UUID, activeOnly bool, now time.Time) ([]models.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE store_info_id = $1 AND deleted_at IS NULL`
	args := []interface{}{storeInfoID}
	if activeOnly {
		query += ` AND is_active = TRUE AND start_date <= $2 AND end_date >= $2`
		args = append(args, now)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	var promos []models.Promotion
	for rows.Next() {
		promo, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promos = append(promos, *promo)
	}
	return promos, rows.Err()
}

// FindActiveByCode resolves a discount code to the newest active promotion
// carrying it.
func (s *Store) FindActiveByCode(ctx context.Context, storeInfoID uuid.UUID, code string, now time.Time) (*models.Promotion, error) {
	query := `SELECT ` + promotionColumns + `
		FROM promotions
		WHERE store_info_id = $1 AND deleted_at IS NULL AND is_active = TRUE
		  AND start_date <= $3 AND end_date >= $3
		  AND $2 = ANY(codes)
		ORDER BY created_at DESC
		LIMIT 1`

	promo, err := scanPromotion(s.db.QueryRowContext(ctx, query, storeInfoID, code, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find promotion by code: %w", err)
	}
	return promo, nil
}

// CountUsage returns how many orders have used the promotion.
func (s *Store) CountUsage(ctx context.Context, promotionID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM promotion_usage WHERE promotion_id = $1",
		promotionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count promotion usage: %w", err)
	}
	return count, nil
}

// CountCustomerUsage returns how many orders by one customer have used the
// promotion.
func (s *Store) CountCustomerUsage(ctx context.Context, promotionID, customerID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM promotion_usage WHERE promotion_id = $1 AND customer_id = $2",
		promotionID, customerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count customer promotion usage: %w", err)
	}
	return count, nil
}

// PromotionStats aggregates a store's promotion totals.
func (s *Store) PromotionStats(ctx context.Context, storeInfoID uuid.UUID, now time.Time) (*storage.PromotionStats, error) {
	var stats storage.PromotionStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active = TRUE AND start_date <= $2 AND end_date >= $2)
		FROM promotions
		WHERE store_info_id = $1 AND deleted_at IS NULL
	`, storeInfoID, now).Scan(&stats.TotalPromotions, &stats.ActivePromotions)
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion counts: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(pu.discount_amount), 0)
		FROM promotion_usage pu
		JOIN promotions p ON pu.promotion_id = p.id
		WHERE p.store_info_id = $1
	`, storeInfoID).Scan(&stats.TotalUsage, &stats.TotalDiscount)
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion usage totals: %w", err)
	}
	return &stats, nil
}

// CreatePromotion inserts a promotion.
func (s *Store) CreatePromotion(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	query := `
		INSERT INTO promotions (
			store_info_id, name, description, discount_type, discount_value,
			minimum_purchase, maximum_discount, start_date, end_date,
			usage_limit, customer_usage_limit, is_active,
			applicable_category_ids, applicable_product_ids, codes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + promotionColumns

	created, err := scanPromotion(s.db.QueryRowContext(ctx, query,
		promo.StoreInfoID, promo.Name, promo.Description, promo.DiscountType, promo.DiscountValue,
		nullDecimal(promo.MinimumPurchase), nullDecimal(promo.MaximumDiscount),
		promo.StartDate, promo.EndDate,
		nullInt(promo.UsageLimit), nullInt(promo.CustomerUsageLimit), promo.IsActive,
		pq.Array(uuidStrings(promo.ApplicableCategoryIDs)),
		pq.Array(uuidStrings(promo.ApplicableProductIDs)),
		pq.Array(promo.Codes),
		nullUUID(promo.CreatedBy),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}
	return created, nil
}

// UpdatePromotion replaces the mutable fields of a promotion.
func (s *Store) UpdatePromotion(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	query := `
		UPDATE promotions SET
			name = $2, description = $3, discount_type = $4, discount_value = $5,
			minimum_purchase = $6, maximum_discount = $7, start_date = $8, end_date = $9,
			usage_limit = $10, customer_usage_limit = $11, is_active = $12,
			applicable_category_ids = $13, applicable_product_ids = $14, codes = $15,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + promotionColumns

	updated, err := scanPromotion(s.db.QueryRowContext(ctx, query,
		promo.ID, promo.Name, promo.Description, promo.DiscountType, promo.DiscountValue,
		nullDecimal(promo.MinimumPurchase), nullDecimal(promo.MaximumDiscount),
		promo.StartDate, promo.EndDate,
		nullInt(promo.UsageLimit), nullInt(promo.CustomerUsageLimit), promo.IsActive,
		pq.Array(uuidStrings(promo.ApplicableCategoryIDs)),
		pq.Array(uuidStrings(promo.ApplicableProductIDs)),
		pq.Array(promo.Codes),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}
	return updated, nil
}

// SoftDeletePromotion sets deleted_at on a promotion.
func (s *Store) SoftDeletePromotion(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE promotions SET deleted_at = NOW(), is_active = FALSE WHERE id = $1 AND deleted_at IS NULL",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	return checkAffected(result)
}

// HardDeletePromotion removes a promotion row.
func (s *Store) HardDeletePromotion(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM promotions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	return checkAffected(result)
}

// SetPromotionImage updates the banner image URL.
func (s *Store) SetPromotionImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE promotions SET image_url = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
		id, imageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to set promotion image: %w", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
