package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/shift-planner-go/pkg/apperr"
	"github.com/arnavshah/shift-planner-go/pkg/models"
	"github.com/arnavshah/shift-planner-go/pkg/timewindow"
)

// Service owns user accounts: registration, login and lookup.
type Service struct {
	db     *gorm.DB
	tokens *Tokens
	cost   int
	log    *zap.Logger
}

func NewService(db *gorm.DB, tokens *Tokens, bcryptCost int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, tokens: tokens, cost: bcryptCost, log: log}
}

// Tokens exposes the issuer used by Authenticate.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Registration is the input to Register.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
	Timezone string
}

// Register creates an account. Emails are unique and compared case-insensitively.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	if !r.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, r.Role)
	}
	loc, err := timewindow.LoadLocation(r.Timezone)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(r.Email)

	hash, err := HashPassword(r.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(r.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         r.Role,
		Timezone:     loc.String(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return insertUser(tx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// insertUser creates the row. A concurrent registration that passed the
// count check first loses on the unique email index.
func insertUser(tx *gorm.DB, user *models.User) error {
	err := tx.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Authenticate checks credentials and returns a signed token for the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.LookupByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("create token: %w", err)
	}
	return token, user, nil
}

// Lookup finds a user by id.
func (s *Service) Lookup(ctx context.Context, id string) (*models.User, error) {
	return s.find(ctx, "id = ?", id)
}

// LookupByEmail finds a user by email.
func (s *Service) LookupByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(ctx, "email = ?", normalizeEmail(email))
}

func (s *Service) find(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, arg).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &user, nil
}

// EnsureAdminExists creates the bootstrap admin when no admin account
// exists yet. It reports whether an account was created.
func (s *Service) EnsureAdminExists(ctx context.Context, name, email, password, timezone string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if name == "" {
		name = "admin"
	}
	if timezone == "" {
		timezone = "UTC"
	}

	_, err := s.Register(ctx, Registration{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
		Timezone: timezone,
	})
	if err != nil {
		return false, err
	}
	s.log.Info("default admin user created", zap.String("email", normalizeEmail(email)))
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
