package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed account store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new account. Duplicate phones surface as ErrPhoneExists
// via the unique constraint on the phone column.
func (s *PostgresStore) Create(ctx context.Context, acct Account) error {
	acctID, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	var otpCode sql.NullString
	var otpIssuedAt sql.NullTime
	if acct.PendingOTP != nil {
		otpCode = sql.NullString{String: acct.PendingOTP.Code, Valid: true}
		otpIssuedAt = sql.NullTime{Time: acct.PendingOTP.IssuedAt.UTC(), Valid: true}
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (id, full_name, phone, password_hash, role, verification_state, otp_code, otp_issued_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		acctID, acct.FullName, acct.Phone, acct.PasswordHash, string(acct.Role), string(acct.State), otpCode, otpIssuedAt, acct.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrPhoneExists
	}
	return err
}

// FindByPhone fetches an account by phone number.
func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT id, full_name, phone, password_hash, role, verification_state, otp_code, otp_issued_at, created_at
        FROM accounts WHERE phone = $1`, phone)
	var (
		id          uuid.UUID
		role        string
		state       string
		otpCode     sql.NullString
		otpIssuedAt sql.NullTime
		createdAt   time.Time
		acct        Account
	)
	err := row.Scan(&id, &acct.FullName, &acct.Phone, &acct.PasswordHash, &role, &state, &otpCode, &otpIssuedAt, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.ID = id.String()
	acct.Role = Role(role)
	acct.State = VerificationState(state)
	if otpCode.Valid {
		acct.PendingOTP = &OTP{Code: otpCode.String, IssuedAt: otpIssuedAt.Time.UTC()}
	}
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}

// MarkVerified applies the pending->verified transition. The WHERE clause
// keeps the update conditional so concurrent attempts succeed at most once.
func (s *PostgresStore) MarkVerified(ctx context.Context, phone string) error {
	cmd, err := s.db.Exec(ctx, `UPDATE accounts
        SET verification_state = $1, otp_code = NULL, otp_issued_at = NULL
        WHERE phone = $2 AND verification_state = $3`,
		string(StateVerified), phone, string(StatePending))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceOTP stores a fresh passcode on a still-pending account.
func (s *PostgresStore) ReplaceOTP(ctx context.Context, phone, code string, issuedAt time.Time) error {
	cmd, err := s.db.Exec(ctx, `UPDATE accounts
        SET otp_code = $1, otp_issued_at = $2
        WHERE phone = $3 AND verification_state = $4`,
		code, issuedAt.UTC(), phone, string(StatePending))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
