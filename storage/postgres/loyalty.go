package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

const uniqueViolation = "23505"

// GetAccount retrieves a customer's points account.
func (s *Store) GetAccount(ctx context.Context, customerID uuid.UUID) (*models.PointsAccount, error) {
	query := `
		SELECT customer_id, points_balance, tier, total_earned, total_redeemed, last_activity, updated_at
		FROM loyalty_accounts
		WHERE customer_id = $1
	`

	var acct models.PointsAccount
	err := s.db.QueryRowContext(ctx, query, customerID).Scan(
		&acct.CustomerID, &acct.PointsBalance, &acct.Tier,
		&acct.TotalEarned, &acct.TotalRedeemed, &acct.LastActivity, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loyalty account: %w", err)
	}
	return &acct, nil
}

// ListLedgerEntries retrieves a customer's ledger history, newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	query := `
		SELECT id, customer_id, order_id, entry_type, points_delta, description, created_at
		FROM loyalty_ledger
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{customerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(
			&entry.ID, &entry.CustomerID, &entry.OrderID,
			&entry.EntryType, &entry.PointsDelta, &entry.Description, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListInactiveAccounts retrieves accounts with a positive balance whose last
// activity predates the cutoff.
func (s *Store) ListInactiveAccounts(ctx context.Context, cutoff time.Time) ([]models.PointsAccount, error) {
	query := `
		SELECT customer_id, points_balance, tier, total_earned, total_redeemed, last_activity, updated_at
		FROM loyalty_accounts
		WHERE points_balance > 0 AND last_activity < $1
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.PointsAccount
	for rows.Next() {
		var acct models.PointsAccount
		if err := rows.Scan(
			&acct.CustomerID, &acct.PointsBalance, &acct.Tier,
			&acct.TotalEarned, &acct.TotalRedeemed, &acct.LastActivity, &acct.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan loyalty account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// GetSettings retrieves a store's loyalty settings, creating the default row
// if the store has none yet.
func (s *Store) GetSettings(ctx context.Context, storeInfoID uuid.UUID) (*models.LoyaltySettings, error) {
	query := `
		INSERT INTO loyalty_settings (store_info_id)
		VALUES ($1)
		ON CONFLICT (store_info_id) DO UPDATE SET store_info_id = EXCLUDED.store_info_id
		RETURNING store_info_id, points_per_currency, redemption_rate, minimum_redemption, expiry_months, enabled, updated_at
	`

	var settings models.LoyaltySettings
	var expiry sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, storeInfoID).Scan(
		&settings.StoreInfoID, &settings.PointsPerCurrency, &settings.RedemptionRate,
		&settings.MinimumRedemption, &expiry, &settings.Enabled, &settings.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty settings: %w", err)
	}
	if expiry.Valid {
		months := int(expiry.Int64)
		settings.ExpiryMonths = &months
	}
	return &settings, nil
}

// UpdateSettings applies a partial settings update.
func (s *Store) UpdateSettings(ctx context.Context, storeInfoID uuid.UUID, update storage.SettingsUpdate) (*models.LoyaltySettings, error) {
	// Ensure the row exists before updating it
	if _, err := s.GetSettings(ctx, storeInfoID); err != nil {
		return nil, err
	}

	// Build update query dynamically
	query := "UPDATE loyalty_settings SET updated_at = NOW()"
	args := []interface{}{}
	argIndex := 1

	if update.PointsPerCurrency != nil {
		query += fmt.Sprintf(", points_per_currency = $%d", argIndex)
		args = append(args, *update.PointsPerCurrency)
		argIndex++
	}
	if update.RedemptionRate != nil {
		query += fmt.Sprintf(", redemption_rate = $%d", argIndex)
		args = append(args, *update.RedemptionRate)
		argIndex++
	}
	if update.MinimumRedemption != nil {
		query += fmt.Sprintf(", minimum_redemption = $%d", argIndex)
		args = append(args, *update.MinimumRedemption)
		argIndex++
	}
	if update.ClearExpiry {
		query += ", expiry_months = NULL"
	} else if update.ExpiryMonths != nil {
		query += fmt.Sprintf(", expiry_months = $%d", argIndex)
		args = append(args, *update.ExpiryMonths)
		argIndex++
	}
	if update.Enabled != nil {
		query += fmt.Sprintf(", enabled = $%d", argIndex)
		args = append(args, *update.Enabled)
		argIndex++
	}

	query += fmt.Sprintf(" WHERE store_info_id = $%d", argIndex)
	args = append(args, storeInfoID)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update loyalty settings: %w", err)
	}

	return s.GetSettings(ctx, storeInfoID)
}

// ApplyEntry atomically appends a ledger entry and updates the customer's
// account. The account row is locked for the duration of the transaction so
// concurrent balance changes on the same customer serialize.
func (s *Store) ApplyEntry(ctx context.Context, entry *models.LedgerEntry) (*models.PointsAccount, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Create the account row if this is the customer's first movement,
	// then take the row lock.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO loyalty_accounts (customer_id)
		VALUES ($1)
		ON CONFLICT (customer_id) DO NOTHING
	`, entry.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure loyalty account: %w", err)
	}

	var acct models.PointsAccount
	err = tx.QueryRowContext(ctx, `
		SELECT customer_id, points_balance, total_earned, total_redeemed
		FROM loyalty_accounts
		WHERE customer_id = $1
		FOR UPDATE
	`, entry.CustomerID).Scan(
		&acct.CustomerID, &acct.PointsBalance, &acct.TotalEarned, &acct.TotalRedeemed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock loyalty account: %w", err)
	}

	newBalance := acct.PointsBalance + entry.PointsDelta
	if newBalance < 0 {
		return nil, storage.ErrInsufficientBalance
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO loyalty_ledger (id, customer_id, order_id, entry_type, points_delta, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.CustomerID, entry.OrderID, entry.EntryType, entry.PointsDelta, entry.Description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, storage.ErrDuplicateEarn
		}
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	totalEarned := acct.TotalEarned
	totalRedeemed := acct.TotalRedeemed
	switch entry.EntryType {
	case models.EntryEarned:
		totalEarned += entry.PointsDelta
	case models.EntryRedeemed:
		totalRedeemed += -entry.PointsDelta
	}
	tier := models.TierFor(totalEarned)

	err = tx.QueryRowContext(ctx, `
		UPDATE loyalty_accounts
		SET points_balance = $2, total_earned = $3, total_redeemed = $4, tier = $5,
		    last_activity = NOW(), updated_at = NOW()
		WHERE customer_id = $1
		RETURNING customer_id, points_balance, tier, total_earned, total_redeemed, last_activity, updated_at
	`, entry.CustomerID, newBalance, totalEarned, totalRedeemed, tier).Scan(
		&acct.CustomerID, &acct.PointsBalance, &acct.Tier,
		&acct.TotalEarned, &acct.TotalRedeemed, &acct.LastActivity, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update loyalty account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}
	return &acct, nil
}
