// internal/notification/repository.go

package notification

import (
    "context"

    "github.com/jmoiron/sqlx"
    "github.com/lib/pq"
)

// Contact is what the gateway needs to reach a user off-platform.
type Contact struct {
    Email        string   `db:"email"`
    Nickname     string   `db:"nickname"`
    DeviceTokens []string `db:"-"`
}

type ContactRepository interface {
    GetContact(ctx context.Context, userID int64) (*Contact, error)
}

type postgresContactRepository struct {
    db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) ContactRepository {
    return &postgresContactRepository{db: db}
}

func (r *postgresContactRepository) GetContact(ctx context.Context, userID int64) (*Contact, error) {
    var contact Contact
    err := r.db.GetContext(ctx, &contact,
        `SELECT email, nickname FROM users WHERE id = $1`, userID)
    if err != nil {
        return nil, err
    }

    var tokens pq.StringArray
    err = r.db.GetContext(ctx, &tokens, `
        SELECT COALESCE(array_agg(token), '{}')
        FROM device_tokens
        WHERE user_id = $1 AND is_active = true
    `, userID)
    if err != nil {
        return nil, err
    }
    contact.DeviceTokens = tokens

    return &contact, nil
}
