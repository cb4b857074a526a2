package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	Get(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	ListActiveByRoles(ctx context.Context, roles ...constants.Role) ([]*entity.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	CreateDepartment(ctx context.Context, d *entity.Department) error
	GetDepartmentByName(ctx context.Context, name string) (*entity.Department, error)
	ListDepartments(ctx context.Context) ([]*entity.Department, error)
}

type userRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewUserRepository(db *DB, logger *slog.Logger) UserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &userRepository{db: db, logger: logger}
}

const userSelect = "SELECT id, username, email, role, department_id, is_active, created_at FROM users"

func scanUser(rs rowScanner) (*entity.User, error) {
	var (
		u    entity.User
		role string
		ts   nullTime
	)
	if err := rs.Scan(&u.ID, &u.Username, &u.Email, &role, &u.DepartmentID, &u.IsActive, &ts); err != nil {
		return nil, err
	}
	u.Role = constants.Role(role)
	u.CreatedAt = ts.Time
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *entity.User) error {
	if !u.Role.Valid() {
		return common.ValidationErrorf("unknown role %q", u.Role)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.exec(ctx,
		"INSERT INTO users (id, username, email, role, department_id, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Username, u.Email, string(u.Role), u.DepartmentID, u.IsActive, u.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("failed to create user", "username", u.Username, "error", err)
		return common.PersistenceError("create user", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := scanUser(r.db.queryRow(ctx, userSelect+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound(fmt.Sprintf("user %s not found", id))
	}
	if err != nil {
		return nil, common.PersistenceError("get user", err)
	}
	return u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := scanUser(r.db.queryRow(ctx, userSelect+" WHERE username = ?", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound(fmt.Sprintf("user %q not found", username))
	}
	if err != nil {
		return nil, common.PersistenceError("get user", err)
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	return r.listUsers(ctx, userSelect+" ORDER BY username")
}

func (r *userRepository) ListActiveByRoles(ctx context.Context, roles ...constants.Role) ([]*entity.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := []any{true}
	for _, role := range roles {
		args = append(args, string(role))
	}
	return r.listUsers(ctx, userSelect+" WHERE is_active = ? AND role IN ("+placeholders(len(roles))+") ORDER BY username", args...)
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.exec(ctx, "UPDATE users SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return common.PersistenceError("update user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFound(fmt.Sprintf("user %s not found", id))
	}
	return nil
}

func (r *userRepository) listUsers(ctx context.Context, q string, args ...any) ([]*entity.User, error) {
	rows, err := r.db.query(ctx, q, args...)
	if err != nil {
		return nil, common.PersistenceError("list users", err)
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, common.PersistenceError("scan user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceError("list users", err)
	}
	return out, nil
}

func (r *userRepository) CreateDepartment(ctx context.Context, d *entity.Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if _, err := r.db.exec(ctx, "INSERT INTO departments (id, name) VALUES (?, ?)", d.ID, d.Name); err != nil {
		return common.PersistenceError("create department", err)
	}
	return nil
}

func (r *userRepository) GetDepartmentByName(ctx context.Context, name string) (*entity.Department, error) {
	var d entity.Department
	err := r.db.queryRow(ctx, "SELECT id, name FROM departments WHERE name = ?", name).Scan(&d.ID, &d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound(fmt.Sprintf("department %q not found", name))
	}
	if err != nil {
		return nil, common.PersistenceError("get department", err)
	}
	return &d, nil
}

func (r *userRepository) ListDepartments(ctx context.Context) ([]*entity.Department, error) {
	rows, err := r.db.query(ctx, "SELECT id, name FROM departments ORDER BY name")
	if err != nil {
		return nil, common.PersistenceError("list departments", err)
	}
	defer rows.Close()

	var out []*entity.Department
	for rows.Next() {
		var d entity.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, common.PersistenceError("scan department", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
