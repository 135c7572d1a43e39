package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadcapture/internal/apperr"
	"leadcapture/internal/config"
	"leadcapture/internal/database"
	"leadcapture/pkg/utils"
)

var (
	ErrNotFound           = apperr.NotFound("User not found")
	ErrDuplicateEmail     = apperr.Conflict("An account with this email already exists")
	ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	Name     string        `json:"name" validate:"required"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=6"`
	Phone    *string       `json:"phone"`
	Role     database.Role `json:"role"`
}

type ListFilter struct {
	Role     *database.Role
	IsActive *bool
	Limit    int
	Offset   int
}

type UpdateInput struct {
	Name     *string
	Phone    *string
	Role     *database.Role
	IsActive *bool
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes the password and inserts the user. The unique index on email
// decides between concurrent registrations; the loser gets ErrDuplicateEmail.
func (s *Service) Create(ctx context.Context, in CreateInput) (*database.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = database.RoleUser
	}

	if err := config.Validate.Struct(in); err != nil {
		return nil, apperr.FromValidator("Invalid user", err)
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("Invalid user", map[string]string{"role": "is invalid"})
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := database.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         in.Role,
		IsActive:     true,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (*database.User, error) {
	var user database.User

	result := s.db.WithContext(ctx).First(&user, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	var user database.User

	result := s.db.WithContext(ctx).First(&user, "email = ?", NormalizeEmail(email))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetUsersByIDs returns the users that exist among ids, keyed by id.
func (s *Service) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]database.User, error) {
	users := make(map[uuid.UUID]database.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var found []database.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, u := range found {
		users[u.ID] = u
	}
	return users, nil
}

func (s *Service) filtered(ctx context.Context, f ListFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&database.User{})
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	return q
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]database.User, error) {
	var users []database.User
	err := s.filtered(ctx, f).
		Order("created_at DESC").
		Scopes(database.Paginate(f.Limit, f.Offset)).
		Find(&users).Error
	return users, err
}

func (s *Service) Count(ctx context.Context, f ListFilter) (int64, error) {
	var n int64
	err := s.filtered(ctx, f).Count(&n).Error
	return n, err
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*database.User, error) {
	updates := map[string]any{}
	fields := map[string]string{}

	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name == "" {
			fields["name"] = "is required"
		} else {
			updates["name"] = name
		}
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			fields["role"] = "is invalid"
		} else {
			updates["role"] = *in.Role
		}
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid user", fields)
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", userID).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetUserByID(ctx, userID)
}

func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) (*database.User, error) {
	inactive := false
	return s.Update(ctx, userID, UpdateInput{IsActive: &inactive})
}

func (s *Service) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return utils.VerifyPassword(password, user.PasswordHash)
}

// Authenticate answers ErrInvalidCredentials for unknown, inactive and
// wrong-password users alike.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*database.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) TouchLastLogin(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&database.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}

// EnsureAdmin creates an administrator when none exists. A generated password
// is returned when password is empty so the caller can hand it out once.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (created *database.User, generated string, err error) {
	admin := database.RoleAdmin
	n, err := s.Count(ctx, ListFilter{Role: &admin})
	if err != nil {
		return nil, "", err
	}
	if n > 0 {
		return nil, "", nil
	}

	if password == "" {
		password = utils.GeneratePassword(16)
		generated = password
	}

	created, err = s.Create(ctx, CreateInput{
		Name:     "System Administrator",
		Email:    email,
		Password: password,
		Role:     database.RoleAdmin,
	})
	if err != nil {
		return nil, "", err
	}

	return created, generated, nil
}
