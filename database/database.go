package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/araneta/postoko-sub002/models"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

var Database *DB

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Database = &DB{db}
	return Database, nil
}

// InitializeTables creates all tables if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Define the order of table creation (respecting foreign key dependencies)
	models := []interface{}{
		models.User{},
		models.PointsAccount{},
		models.LedgerEntry{},
		models.LoyaltySettings{},
		models.Promotion{},
		models.Order{},
		models.OrderItem{},
		models.PromotionUsage{},
	}

	for _, model := range models {
		if tableModel, ok := model.(interface {
			TableName() string
			CreateTableSQL() string
		}); ok {
			tableName := tableModel.TableName()
			createSQL := tableModel.CreateTableSQL()

			log.Printf("Creating table: %s", tableName)
			if _, err := db.Exec(createSQL); err != nil {
				return fmt.Errorf("failed to create table %s: %w", tableName, err)
			}
		}
	}

	// Run schema migrations
	if err := db.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations handles schema updates for existing tables
func (db *DB) runMigrations() error {
	migrations := []string{
		// Older databases predate the tier and lifetime counters
		`ALTER TABLE loyalty_accounts ADD COLUMN IF NOT EXISTS total_earned BIGINT NOT NULL DEFAULT 0;`,
		`ALTER TABLE loyalty_accounts ADD COLUMN IF NOT EXISTS total_redeemed BIGINT NOT NULL DEFAULT 0;`,
		`ALTER TABLE loyalty_accounts ADD COLUMN IF NOT EXISTS tier TEXT NOT NULL DEFAULT 'bronze';`,

		// Promotions gained banner images and soft delete after launch
		`ALTER TABLE promotions ADD COLUMN IF NOT EXISTS image_url TEXT;`,
		`ALTER TABLE promotions ADD COLUMN IF NOT EXISTS deleted_at TIMESTAMP WITH TIME ZONE;`,
		`ALTER TABLE promotions ADD COLUMN IF NOT EXISTS customer_usage_limit INTEGER;`,

		// Orders reference the promotion that discounted them
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS promotion_id UUID REFERENCES promotions(id);`,
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS discount_total NUMERIC(12,2) NOT NULL DEFAULT 0;`,

		`CREATE INDEX IF NOT EXISTS idx_promotion_usage_order ON promotion_usage(order_id);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			log.Printf("Warning: Migration %d failed: %v", i+1, err)
			// Continue with other migrations even if one fails
		}
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
