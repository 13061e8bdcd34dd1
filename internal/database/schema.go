package database

// schema.go applies the relational schema at startup.  Statements are
// idempotent (CREATE TABLE IF NOT EXISTS) so repeated boots are safe.
// Referential integrity is declared here as the storage-level backstop for
// the application checks: deleting a restaurant cascades through tables,
// time slots and bookings; UNIQUE(restaurant_id, table_number) guards table
// numbering and UNIQUE(time_slot_id) guarantees at most one booking per slot.

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(150) NOT NULL,
		email         VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		is_staff      TINYINT(1) NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id)
			REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS restaurants (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		address    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS tables (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		table_number  VARCHAR(40) NOT NULL,
		capacity      INT UNSIGNED NOT NULL,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_tables_restaurant_number (restaurant_id, table_number),
		CONSTRAINT chk_tables_capacity CHECK (capacity > 0),
		CONSTRAINT fk_tables_restaurant FOREIGN KEY (restaurant_id)
			REFERENCES restaurants (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS time_slots (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		table_id   BIGINT UNSIGNED NOT NULL,
		start_time DATETIME NOT NULL,
		end_time   DATETIME NOT NULL,
		status     ENUM('free','reserved') NOT NULL DEFAULT 'free',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_time_slots_table_start (table_id, start_time),
		CONSTRAINT fk_time_slots_table FOREIGN KEY (table_id)
			REFERENCES tables (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id      BIGINT UNSIGNED NOT NULL,
		table_id     BIGINT UNSIGNED NOT NULL,
		time_slot_id BIGINT UNSIGNED NOT NULL,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bookings_time_slot (time_slot_id),
		KEY idx_bookings_user (user_id),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id)
			REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_bookings_table FOREIGN KEY (table_id)
			REFERENCES tables (id) ON DELETE CASCADE,
		CONSTRAINT fk_bookings_time_slot FOREIGN KEY (time_slot_id)
			REFERENCES time_slots (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
}

// Migrate executes every schema statement in order.  It stops at the first
// failure and returns the error to the caller.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
