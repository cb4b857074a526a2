package profiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

// TxRunner runs fn in one transaction. *repository.DB satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages workflow users and departments.
type Service struct {
	tx     TxRunner
	users  repository.UserRepository
	logger *slog.Logger
}

func NewService(tx TxRunner, users repository.UserRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tx: tx, users: users, logger: logger}
}

// CreateUserRequest represents user creation parameters.
type CreateUserRequest struct {
	Username   string
	Email      string
	Role       string
	Department string
	Inactive   bool
}

const (
	maxUsernameLen = 80
	maxEmailLen    = 120
)

// CreateUser creates a user, creating the named department on first use.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*entity.User, error) {
	var u *entity.User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		u, _, err = s.ensureUser(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("profiles.user.created", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// ListUsers returns all users ordered by username.
func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.users.List(ctx)
}

// SetActive enables or disables a user by username.
func (s *Service) SetActive(ctx context.Context, username string, active bool) error {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, u.ID, active); err != nil {
		return err
	}
	s.logger.Info("profiles.user.active_changed", "user_id", u.ID, "username", u.Username, "active", active)
	return nil
}

// SeedFile is the YAML seed document.
//
//	departments: [Site, Procurement]
//	users:
//	  - username: asha
//	    email: asha@example.com
//	    role: finance
//	    department: Site
type SeedFile struct {
	Departments []string   `yaml:"departments"`
	Users       []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Username   string `yaml:"username"`
	Email      string `yaml:"email"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
	Inactive   bool   `yaml:"inactive"`
}

// DecodeSeed parses a seed document. Unknown keys are rejected.
func DecodeSeed(r io.Reader) (SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return SeedFile{}, common.ValidationErrorf("invalid seed file: %v", err)
	}
	return sf, nil
}

// SeedStats counts what Seed created.
type SeedStats struct {
	Departments int
	Users       int
	Existing    int
}

// Seed creates the listed departments and users in one transaction.
// Existing users are left as they are.
func (s *Service) Seed(ctx context.Context, sf SeedFile) (SeedStats, error) {
	var stats SeedStats
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, name := range sf.Departments {
			_, created, err := s.ensureDepartment(ctx, name)
			if err != nil {
				return err
			}
			if created {
				stats.Departments++
			}
		}
		for _, su := range sf.Users {
			_, created, err := s.ensureUser(ctx, CreateUserRequest(su))
			if err != nil {
				return err
			}
			if created {
				stats.Users++
			} else {
				stats.Existing++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("profiles.seed.failed", "error", err)
		return SeedStats{}, err
	}
	s.logger.Info("profiles.seed.ok", "departments", stats.Departments, "users", stats.Users, "existing", stats.Existing)
	return stats, nil
}

func (s *Service) ensureDepartment(ctx context.Context, name string) (*entity.Department, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, common.ValidationErrorf("department name is required")
	}
	d, err := s.users.GetDepartmentByName(ctx, name)
	if err == nil {
		return d, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	d = &entity.Department{Name: name}
	if err := s.users.CreateDepartment(ctx, d); err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func (s *Service) ensureUser(ctx context.Context, req CreateUserRequest) (*entity.User, bool, error) {
	username := strings.TrimSpace(req.Username)
	v := common.NewValidator().
		Field("username", username, common.Required, common.MaxLength(maxUsernameLen)).
		Field("email", strings.TrimSpace(req.Email), common.MaxLength(maxEmailLen))
	if err := v.Error(); err != nil {
		return nil, false, err
	}
	role, ok := constants.ParseRole(req.Role)
	if !ok {
		return nil, false, common.ValidationErrorf("user %s: unknown role %q", username, req.Role)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	u := &entity.User{
		Username: username,
		Email:    strings.TrimSpace(req.Email),
		Role:     role,
		IsActive: !req.Inactive,
	}
	if dept := strings.TrimSpace(req.Department); dept != "" {
		d, _, err := s.ensureDepartment(ctx, dept)
		if err != nil {
			return nil, false, err
		}
		u.DepartmentID = uuid.NullUUID{UUID: d.ID, Valid: true}
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("create user %s: %w", username, err)
	}
	return u, true, nil
}
