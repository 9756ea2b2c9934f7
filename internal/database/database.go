package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Joeboy77/chat-app/internal/config"
)

// Init opens the database connection and ensures the schema exists.
func Init(cfg config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 接続テスト
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

// EnsureSchema creates the users/messages/reactions tables if absent.
// マイグレーション機構は持たない（起動時のCREATE IF NOT EXISTSのみ）。
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(191) NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS messages (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			content TEXT NOT NULL,
			type VARCHAR(8) NOT NULL DEFAULT 'text',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			is_edited BOOLEAN NOT NULL DEFAULT FALSE,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			parent_message_id BIGINT NULL,
			audio_url TEXT NULL,
			audio_duration DOUBLE NOT NULL DEFAULT 0,
			file_url TEXT NULL,
			file_name VARCHAR(255) NULL,
			file_type VARCHAR(128) NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			is_image BOOLEAN NOT NULL DEFAULT FALSE,
			KEY idx_messages_created (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS reactions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			message_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			emoji VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE KEY uniq_reaction (message_id, user_id, emoji)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
