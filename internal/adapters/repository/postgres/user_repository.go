package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vncsmyrnk/fieldsurvey/internal/core/domain"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
)

const userColumns = `id, name, email, cpf, role, password_hash, first_access, created_at`

var allRoles = []string{string(domain.RoleAdmin), string(domain.RoleResearcher)}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) ports.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// List returns active users with the given role, or every active user when role is empty.
func (r *UserRepository) List(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	roles := allRoles
	if role != "" {
		roles = []string{string(role)}
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL AND role = ANY($1) ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(roles))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, name, email, cpf, role, password_hash, first_access)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.CPF, user.Role, user.PasswordHash, user.FirstAccess,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_active_idx") {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, cpf = $3, role = $4, password_hash = $5, first_access = $6
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.CPF, user.Role, user.PasswordHash, user.FirstAccess)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrUserNotFound)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrUserNotFound)
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.CPF, &user.Role, &user.PasswordHash, &user.FirstAccess, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
