package users

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademi-sis/akademi/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Account, int, error)
	Get(ctx context.Context, id int64) (Account, error)
	Create(ctx context.Context, account Account, passwordHash string) (Account, error)
	Update(ctx context.Context, id int64, account Account) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteSessionsFor(ctx context.Context, userID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountSelect = `
	SELECT u.id, u.email, u.role, COALESCE(u.teacher_id, 0), COALESCE(t.name, ''),
	       COALESCE(u.student_id, 0), COALESCE(s.name, ''), u.is_active, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN teachers t ON t.id = u.teacher_id
	LEFT JOIN students s ON s.id = u.student_id`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.Role, &a.TeacherID, &a.TeacherName,
		&a.StudentID, &a.StudentName, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Account, int, error) {
	where := ""
	args := []any{}
	if filters.Search != "" {
		where = ` WHERE u.email ILIKE $1`
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitArg := len(args) + 1
	args = append(args, filters.Limit, filters.Offset())
	rows, err := r.pool.Query(ctx, accountSelect+where+
		` ORDER BY u.email LIMIT $`+strconv.Itoa(limitArg)+` OFFSET $`+strconv.Itoa(limitArg+1), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, a)
	}
	return accounts, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, accountSelect+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Create(ctx context.Context, account Account, passwordHash string) (Account, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role, teacher_id, student_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, 0), NULLIF($5, 0), TRUE, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		account.Email, passwordHash, account.Role, account.TeacherID, account.StudentID).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err, "") {
			return Account{}, shared.ErrDuplicate
		}
		return Account{}, err
	}
	account.IsActive = true
	return account, nil
}

func (r *repository) Update(ctx context.Context, id int64, account Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET email = $2, role = $3, teacher_id = NULLIF($4, 0),
		       student_id = NULLIF($5, 0), updated_at = NOW()
		WHERE id = $1`,
		id, account.Email, account.Role, account.TeacherID, account.StudentID)
	if err != nil {
		if shared.IsUniqueViolation(err, "") {
			return shared.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteSessionsFor drops every live session for the user, forcing a
// fresh login after deactivation or a password reset.
func (r *repository) DeleteSessionsFor(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
