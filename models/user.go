package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal: a store admin or a cashier. Soft
// deleted users stay resolvable for history but cannot log in.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        *string    `json:"email" db:"email"`
	Phone        *string    `json:"phone" db:"phone"`
	PasswordHash *string    `json:"-" db:"password_hash"`
	FullName     *string    `json:"full_name" db:"full_name"`
	Role         string     `json:"role" db:"role"`
	StoreInfoID  uuid.UUID  `json:"store_info_id" db:"store_info_id"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (User) TableName() string {
	return "users"
}

func (User) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT UNIQUE,
		phone TEXT UNIQUE,
		password_hash TEXT,
		full_name TEXT,
		role TEXT NOT NULL DEFAULT 'cashier' CHECK (role IN ('admin', 'cashier')),
		store_info_id UUID NOT NULL,
		is_active BOOLEAN DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		deleted_at TIMESTAMP WITH TIME ZONE
	);`
}
