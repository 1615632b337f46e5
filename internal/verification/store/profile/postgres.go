package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
	txcontext "idverify/pkg/platform/tx"
)

// PostgresStore keeps each variant's fields as JSONB, tagged by persona.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, p *models.PersonaProfile) error {
	if p == nil || p.Data == nil {
		return fmt.Errorf("profile is required")
	}
	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO verification_profiles (id, verification_id, user_id, persona, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(p.ID),
		uuid.UUID(p.VerificationID),
		uuid.UUID(p.UserID),
		string(p.Persona()),
		data,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindLatest(ctx context.Context, verificationID id.VerificationID) (*models.PersonaProfile, error) {
	var (
		profileID, recordID, userID uuid.UUID
		persona                     string
		data                        []byte
		p                           models.PersonaProfile
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, verification_id, user_id, persona, data, created_at
		FROM verification_profiles
		WHERE verification_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, uuid.UUID(verificationID)).
		Scan(&profileID, &recordID, &userID, &persona, &data, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	decoded, err := models.DecodeProfile(models.Persona(persona), data)
	if err != nil {
		return nil, fmt.Errorf("decode stored profile %s: %w", profileID, err)
	}
	p.ID = id.ProfileID(profileID)
	p.VerificationID = id.VerificationID(recordID)
	p.UserID = id.UserID(userID)
	p.Data = decoded
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}
