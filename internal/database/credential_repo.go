package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// The credential store holds exactly two entries.
const (
	keyToken  = "token"
	keyUserID = "userId"
)

// ErrMalformed means exactly one of token/userId is present. The session
// treats this as fatal local state and forces a logout instead of
// attempting a partially-authenticated call.
var ErrMalformed = errors.New("credential store holds token without userId or vice versa")

// CredentialRepository persists the bearer token and user id across
// process restarts. It is written only by the session store and read by
// the HTTP adapter on every outgoing request.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db.GetConn()}
}

// Save stores the token and user id in one transaction.
func (cr *CredentialRepository) Save(token, userID string) error {
	tx, err := cr.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pair := range [][2]string{{keyToken, token}, {keyUserID, userID}} {
		if _, err := stmt.Exec(pair[0], pair[1]); err != nil {
			return fmt.Errorf("failed to store credential %q: %w", pair[0], err)
		}
	}

	return tx.Commit()
}

// Load returns the stored token and user id. Both empty means anonymous;
// exactly one present is ErrMalformed.
func (cr *CredentialRepository) Load() (token, userID string, err error) {
	rows, err := cr.db.Query(`SELECT key, value FROM credentials WHERE key IN (?, ?)`, keyToken, keyUserID)
	if err != nil {
		return "", "", err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", "", err
		}
		switch key {
		case keyToken:
			token = value
		case keyUserID:
			userID = value
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", err
	}

	if (token == "") != (userID == "") {
		return "", "", ErrMalformed
	}
	return token, userID, nil
}

// Token returns the stored bearer token, or "" when anonymous. It
// satisfies the HTTP adapter's TokenSource.
func (cr *CredentialRepository) Token() (string, error) {
	var token string
	err := cr.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, keyToken).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return token, err
}

// Clear removes all stored credentials.
func (cr *CredentialRepository) Clear() error {
	_, err := cr.db.Exec(`DELETE FROM credentials`)
	return err
}
