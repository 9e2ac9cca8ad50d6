// cmd/api/migrations.go
// Schema migrations run at startup. Every statement is idempotent so
// restarts and multiple instances are safe.

package main

import (
    "database/sql"
    "fmt"
    "log"
    "strings"
)

func runMigrations(db *sql.DB) error {
    migrations := []string{
        // Users table. Identity fields are owned by the account service;
        // this API reads them and the matching columns.
        `CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            email VARCHAR(255) UNIQUE,
            nickname VARCHAR(100) UNIQUE NOT NULL,
            age INTEGER,
            gender VARCHAR(20),
            latitude DOUBLE PRECISION,
            longitude DOUBLE PRECISION,
            is_premium BOOLEAN DEFAULT FALSE,
            is_active BOOLEAN DEFAULT TRUE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        // Behavioral profile per user
        `CREATE TABLE IF NOT EXISTS user_profiles (
            user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            type_code VARCHAR(4) NOT NULL,
            profile_image_url TEXT,
            bio TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        // Engagement events feeding interest and activity signals
        `CREATE TABLE IF NOT EXISTS user_interactions (
            id SERIAL PRIMARY KEY,
            user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            interaction_type VARCHAR(20) NOT NULL,
            artwork_category VARCHAR(50),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        // Exhibition attendance, feeding the experience signal
        `CREATE TABLE IF NOT EXISTS exhibition_checkins (
            id SERIAL PRIMARY KEY,
            user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            exhibition_id INTEGER NOT NULL,
            checked_in_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        // Match requests
        `CREATE TABLE IF NOT EXISTS match_requests (
            id UUID PRIMARY KEY,
            host_user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            exhibition_id INTEGER NOT NULL,
            preferred_date TIMESTAMP NOT NULL,
            time_slot VARCHAR(20) NOT NULL,
            matching_criteria JSONB NOT NULL DEFAULT '{}',
            status VARCHAR(20) NOT NULL DEFAULT 'open',
            status_reason TEXT,
            matched_user_id INTEGER REFERENCES users(id),
            host_lat DOUBLE PRECISION NOT NULL,
            host_lng DOUBLE PRECISION NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            expires_at TIMESTAMP NOT NULL,
            matched_at TIMESTAMP
        )`,

        // Append-only accept/reject audit log
        `CREATE TABLE IF NOT EXISTS match_outcomes (
            id SERIAL PRIMARY KEY,
            request_id UUID NOT NULL REFERENCES match_requests(id) ON DELETE CASCADE,
            candidate_id INTEGER NOT NULL REFERENCES users(id),
            decision VARCHAR(10) NOT NULL,
            decided_by INTEGER NOT NULL REFERENCES users(id),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        // Per-request rejection exclusions
        `CREATE TABLE IF NOT EXISTS match_rejections (
            id SERIAL PRIMARY KEY,
            request_id UUID NOT NULL REFERENCES match_requests(id) ON DELETE CASCADE,
            candidate_user_id INTEGER NOT NULL REFERENCES users(id),
            rejected_by INTEGER NOT NULL REFERENCES users(id),
            reason VARCHAR(50),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_request_rejection UNIQUE(request_id, candidate_user_id)
        )`,

        // Post-visit ratings
        `CREATE TABLE IF NOT EXISTS match_feedback (
            id SERIAL PRIMARY KEY,
            request_id UUID NOT NULL REFERENCES match_requests(id) ON DELETE CASCADE,
            rater_user_id INTEGER NOT NULL REFERENCES users(id),
            target_user_id INTEGER NOT NULL REFERENCES users(id),
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            comment TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT unique_request_rater UNIQUE(request_id, rater_user_id)
        )`,

        // Push delivery targets
        `CREATE TABLE IF NOT EXISTS device_tokens (
            id SERIAL PRIMARY KEY,
            user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            token TEXT NOT NULL UNIQUE,
            platform VARCHAR(20),
            is_active BOOLEAN DEFAULT TRUE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,

        // Indexes
        `CREATE INDEX IF NOT EXISTS idx_users_location ON users(latitude, longitude)`,
        `CREATE INDEX IF NOT EXISTS idx_user_profiles_type ON user_profiles(type_code)`,
        `CREATE INDEX IF NOT EXISTS idx_interactions_user ON user_interactions(user_id, created_at DESC)`,
        `CREATE INDEX IF NOT EXISTS idx_checkins_user ON exhibition_checkins(user_id)`,
        `CREATE INDEX IF NOT EXISTS idx_match_requests_host ON match_requests(host_user_id, status)`,
        `CREATE INDEX IF NOT EXISTS idx_match_requests_status ON match_requests(status, expires_at)`,
        `CREATE INDEX IF NOT EXISTS idx_match_requests_exhibition ON match_requests(exhibition_id, status)`,
        `CREATE INDEX IF NOT EXISTS idx_match_outcomes_request ON match_outcomes(request_id)`,
        `CREATE INDEX IF NOT EXISTS idx_match_rejections_request ON match_rejections(request_id)`,
        `CREATE INDEX IF NOT EXISTS idx_device_tokens_user ON device_tokens(user_id)`,
    }

    for i, migration := range migrations {
        if _, err := db.Exec(migration); err != nil {
            if !strings.Contains(err.Error(), "already exists") {
                return fmt.Errorf("migration %d failed: %w", i+1, err)
            }
            log.Printf("   - Migration %d skipped (already exists)", i+1)
        }
    }

    return nil
}
