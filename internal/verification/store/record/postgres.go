package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
	txcontext "idverify/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists records in verification_records. The partial unique
// index on user_id enforces one active record per user.
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

const recordColumns = `
	id, user_id, persona, status, declarations_and_consent,
	full_name, email, school_name,
	submitted_at, pre_approved_at, pre_approved_by, verified_at, verified_by,
	reviewed_at, reviewed_by, reviewer_notes,
	denial_reason, cooldown_until, resubmission_count, previous_id,
	version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, rec *models.VerificationRecord) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	query := `INSERT INTO verification_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1, $21, $22)`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.UserID),
		string(rec.Persona),
		string(rec.Status),
		rec.DeclarationsAndConsent,
		rec.Subject.FullName,
		rec.Subject.Email,
		rec.Subject.SchoolName,
		rec.SubmittedAt,
		rec.PreApprovedAt,
		nullableUser(rec.PreApprovedBy),
		rec.VerifiedAt,
		nullableUser(rec.VerifiedBy),
		rec.ReviewedAt,
		nullableUser(rec.ReviewedBy),
		rec.ReviewerNotes,
		rec.DenialReason,
		rec.CooldownUntil,
		rec.ResubmissionCount,
		nullableRecord(rec.PreviousID),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert verification record: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert verification record: %w", err)
	}
	rec.Version = 1
	return nil
}

// Update is a compare-and-swap on version. Zero affected rows means the row
// is gone or another writer got there first.
func (s *PostgresStore) Update(ctx context.Context, rec *models.VerificationRecord) error {
	query := `
		UPDATE verification_records SET
			persona = $3, status = $4, declarations_and_consent = $5,
			full_name = $6, email = $7, school_name = $8,
			submitted_at = $9, pre_approved_at = $10, pre_approved_by = $11,
			verified_at = $12, verified_by = $13,
			reviewed_at = $14, reviewed_by = $15, reviewer_notes = $16,
			denial_reason = $17, cooldown_until = $18, resubmission_count = $19,
			previous_id = $20, updated_at = $21,
			version = version + 1
		WHERE id = $1 AND version = $2`
	res, err := s.conn(ctx).ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		rec.Version,
		string(rec.Persona),
		string(rec.Status),
		rec.DeclarationsAndConsent,
		rec.Subject.FullName,
		rec.Subject.Email,
		rec.Subject.SchoolName,
		rec.SubmittedAt,
		rec.PreApprovedAt,
		nullableUser(rec.PreApprovedBy),
		rec.VerifiedAt,
		nullableUser(rec.VerifiedBy),
		rec.ReviewedAt,
		nullableUser(rec.ReviewedBy),
		rec.ReviewerNotes,
		rec.DenialReason,
		rec.CooldownUntil,
		rec.ResubmissionCount,
		nullableRecord(rec.PreviousID),
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update verification record: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update verification record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification record: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(ctx, rec.ID); err != nil {
			return err
		}
		return fmt.Errorf("record %s version %d: %w", rec.ID, rec.Version, sentinel.ErrConflict)
	}
	rec.Version++
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.VerificationID) (*models.VerificationRecord, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+recordColumns+` FROM verification_records WHERE id = $1`, uuid.UUID(recordID))
	return scanOne(row)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.VerificationID) ([]*models.VerificationRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, recordID := range ids {
		keys[i] = recordID.String()
	}
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+recordColumns+` FROM verification_records WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("query verification records: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (s *PostgresStore) FindActiveByUser(ctx context.Context, userID id.UserID) (*models.VerificationRecord, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+recordColumns+` FROM verification_records
		WHERE user_id = $1 AND status IN ('unverified', 'pending', 'pre-approved')`, uuid.UUID(userID))
	return scanOne(row)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.VerificationRecord, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+recordColumns+` FROM verification_records
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query verification history: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// Query mirrors models.Project in SQL: same scope predicate, filters and order.
func (s *PostgresStore) Query(ctx context.Context, scope models.ReviewerScope, filter models.QueueFilter) (models.PagedResult, error) {
	filter.Normalize()
	where, args, ok := whereClause(scope, filter)
	if !ok {
		return models.PagedResult{Items: []models.ReviewQueueEntry{}, Pagination: models.NewPagination(filter.Page, filter.Limit, 0)}, nil
	}

	var total int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM verification_records`+where, args...).Scan(&total); err != nil {
		return models.PagedResult{}, fmt.Errorf("count review queue: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset())
	query := `SELECT ` + recordColumns + ` FROM verification_records` + where +
		` ORDER BY COALESCE(submitted_at, created_at) DESC, id ASC` +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return models.PagedResult{}, fmt.Errorf("query review queue: %w", err)
	}
	defer rows.Close()
	records, err := scanAll(rows)
	if err != nil {
		return models.PagedResult{}, err
	}

	items := make([]models.ReviewQueueEntry, 0, len(records))
	for _, rec := range records {
		items = append(items, models.EntryOf(rec))
	}
	return models.PagedResult{Items: items, Pagination: models.NewPagination(filter.Page, filter.Limit, total)}, nil
}

func (s *PostgresStore) Stats(ctx context.Context, scope models.ReviewerScope) (models.Stats, error) {
	where, args, ok := whereClause(scope, models.QueueFilter{})
	if !ok {
		return models.Stats{}, nil
	}
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM verification_records`+where+` GROUP BY status`, args...)
	if err != nil {
		return models.Stats{}, fmt.Errorf("query verification stats: %w", err)
	}
	defer rows.Close()

	var stats models.Stats
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return models.Stats{}, fmt.Errorf("scan verification stats: %w", err)
		}
		stats.Add(models.Status(status), n)
	}
	if err := rows.Err(); err != nil {
		return models.Stats{}, fmt.Errorf("iterate verification stats: %w", err)
	}
	return stats, nil
}

// whereClause renders the scope and filter. ok is false when the scope can
// admit nothing, e.g. a school reviewer without an institution name.
func whereClause(scope models.ReviewerScope, f models.QueueFilter) (string, []any, bool) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	switch scope.Kind {
	case models.ScopeAdmin:
	case models.ScopeSchool:
		if scope.SchoolName == "" {
			return "", nil, false
		}
		conds = append(conds,
			"persona = "+arg(string(models.PersonaStudent)),
			"LOWER(TRIM(school_name)) = LOWER("+arg(scope.SchoolName)+")")
	default:
		return "", nil, false
	}

	if f.Status != "" {
		conds = append(conds, "status = "+arg(string(f.Status)))
	}
	if f.Type != "" {
		personas := models.PersonasOf(f.Type)
		names := make([]string, len(personas))
		for i, p := range personas {
			names[i] = string(p)
		}
		conds = append(conds, "persona = ANY("+arg(pq.Array(names))+"::text[])")
	}
	if f.Persona != "" {
		conds = append(conds, "persona = "+arg(string(f.Persona)))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		p := arg(pattern)
		conds = append(conds, "(full_name ILIKE "+p+" OR email ILIKE "+p+")")
	}

	if len(conds) == 0 {
		return "", args, true
	}
	return " WHERE " + strings.Join(conds, " AND "), args, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*models.VerificationRecord, error) {
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return rec, err
}

func scanAll(rows *sql.Rows) ([]*models.VerificationRecord, error) {
	var out []*models.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification records: %w", err)
	}
	return out, nil
}

func scanRecord(row rowScanner) (*models.VerificationRecord, error) {
	var (
		rec                                   models.VerificationRecord
		recordID, userID                      uuid.UUID
		persona, status                       string
		preApprovedBy, verifiedBy, reviewedBy uuid.NullUUID
		previousID                            uuid.NullUUID
		submittedAt, preApprovedAt            sql.NullTime
		verifiedAt, reviewedAt, cooldownUntil sql.NullTime
		denialReason                          sql.NullString
	)
	err := row.Scan(
		&recordID, &userID, &persona, &status, &rec.DeclarationsAndConsent,
		&rec.Subject.FullName, &rec.Subject.Email, &rec.Subject.SchoolName,
		&submittedAt, &preApprovedAt, &preApprovedBy, &verifiedAt, &verifiedBy,
		&reviewedAt, &reviewedBy, &rec.ReviewerNotes,
		&denialReason, &cooldownUntil, &rec.ResubmissionCount, &previousID,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan verification record: %w", err)
	}
	rec.ID = id.VerificationID(recordID)
	rec.UserID = id.UserID(userID)
	rec.Persona = models.Persona(persona)
	rec.Status = models.Status(status)
	rec.SubmittedAt = timePtr(submittedAt)
	rec.PreApprovedAt = timePtr(preApprovedAt)
	rec.PreApprovedBy = userPtr(preApprovedBy)
	rec.VerifiedAt = timePtr(verifiedAt)
	rec.VerifiedBy = userPtr(verifiedBy)
	rec.ReviewedAt = timePtr(reviewedAt)
	rec.ReviewedBy = userPtr(reviewedBy)
	rec.CooldownUntil = timePtr(cooldownUntil)
	if denialReason.Valid {
		rec.DenialReason = &denialReason.String
	}
	if previousID.Valid {
		prev := id.VerificationID(previousID.UUID)
		rec.PreviousID = &prev
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullableUser(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func nullableRecord(r *id.VerificationID) uuid.NullUUID {
	if r == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*r), Valid: true}
}

func userPtr(n uuid.NullUUID) *id.UserID {
	if !n.Valid {
		return nil
	}
	u := id.UserID(n.UUID)
	return &u
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}
