package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
	txcontext "idverify/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const documentColumns = `
	id, verification_id, user_id, document_type, file_name, file_url,
	content_type, size_bytes, uploaded_at, is_verified, verified_by, verified_at`

func (s *PostgresStore) Save(ctx context.Context, d *models.DocumentAttachment) error {
	if d == nil {
		return fmt.Errorf("document is required")
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO verification_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(d.ID),
		uuid.UUID(d.VerificationID),
		uuid.UUID(d.UserID),
		d.Type,
		d.FileName,
		d.FileURL,
		d.ContentType,
		d.SizeBytes,
		d.UploadedAt,
		d.IsVerified,
		nullableUser(d.VerifiedBy),
		d.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, d *models.DocumentAttachment) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE verification_documents
		SET document_type = $2, is_verified = $3, verified_by = $4, verified_at = $5
		WHERE id = $1`,
		uuid.UUID(d.ID), d.Type, d.IsVerified, nullableUser(d.VerifiedBy), d.VerifiedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRow(res, "update document")
}

func (s *PostgresStore) Delete(ctx context.Context, docID id.DocumentID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM verification_documents WHERE id = $1`, uuid.UUID(docID))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res, "delete document")
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.DocumentAttachment, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+documentColumns+` FROM verification_documents WHERE id = $1`, uuid.UUID(docID))
	return scanOne(row)
}

func (s *PostgresStore) FindByFileURL(ctx context.Context, userID id.UserID, url string) (*models.DocumentAttachment, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+documentColumns+` FROM verification_documents
		WHERE user_id = $1 AND file_url = $2
		ORDER BY uploaded_at DESC LIMIT 1`, uuid.UUID(userID), url)
	return scanOne(row)
}

func (s *PostgresStore) ListByVerification(ctx context.Context, verificationID id.VerificationID) ([]*models.DocumentAttachment, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+documentColumns+` FROM verification_documents
		WHERE verification_id = $1 ORDER BY uploaded_at ASC, id ASC`, uuid.UUID(verificationID))
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := []*models.DocumentAttachment{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*models.DocumentAttachment, error) {
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return d, err
}

func scanDocument(row rowScanner) (*models.DocumentAttachment, error) {
	var (
		d                       models.DocumentAttachment
		docID, recordID, userID uuid.UUID
		verifiedBy              uuid.NullUUID
		verifiedAt              sql.NullTime
	)
	err := row.Scan(&docID, &recordID, &userID, &d.Type, &d.FileName, &d.FileURL,
		&d.ContentType, &d.SizeBytes, &d.UploadedAt, &d.IsVerified, &verifiedBy, &verifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.ID = id.DocumentID(docID)
	d.VerificationID = id.VerificationID(recordID)
	d.UserID = id.UserID(userID)
	d.UploadedAt = d.UploadedAt.UTC()
	if verifiedBy.Valid {
		u := id.UserID(verifiedBy.UUID)
		d.VerifiedBy = &u
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time.UTC()
		d.VerifiedAt = &t
	}
	return &d, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullableUser(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}
