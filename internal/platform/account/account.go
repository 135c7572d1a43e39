package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadcapture/internal/apperr"
	"leadcapture/internal/config"
	"leadcapture/internal/database"
)

var ErrNotFound = apperr.NotFound("Account not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	UserID      uuid.UUID            `json:"userId" validate:"required"`
	Name        string               `json:"name" validate:"required"`
	Email       string               `json:"email" validate:"required,email"`
	Phone       string               `json:"phone" validate:"required"`
	AccountType database.AccountType `json:"accountType"`
}

type ListFilter struct {
	UserID             *uuid.UUID
	Status             *database.AccountStatus
	AccountType        *database.AccountType
	VerificationStatus *database.VerificationStatus
	Limit              int
	Offset             int
}

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	Name               *string                      `json:"name"`
	Email              *string                      `json:"email"`
	Phone              *string                      `json:"phone"`
	Status             *database.AccountStatus      `json:"status"`
	AccountType        *database.AccountType        `json:"accountType"`
	VerificationStatus *database.VerificationStatus `json:"verificationStatus"`
}

func (in UpdateInput) Empty() bool {
	return in.Name == nil && in.Email == nil && in.Phone == nil &&
		in.Status == nil && in.AccountType == nil && in.VerificationStatus == nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*database.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.AccountType == "" {
		in.AccountType = database.AccountIndividual
	}

	if err := config.Validate.Struct(in); err != nil {
		return nil, apperr.FromValidator("Invalid account", err)
	}
	if !in.AccountType.Valid() {
		return nil, apperr.Validation("Invalid account", map[string]string{"accountType": "is invalid"})
	}

	account := database.Account{
		UserID:             in.UserID,
		Name:               in.Name,
		Email:              in.Email,
		Phone:              in.Phone,
		Status:             database.AccountActive,
		AccountType:        in.AccountType,
		VerificationStatus: database.VerificationPending,
	}

	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &account, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*database.Account, error) {
	var account database.Account

	result := s.db.WithContext(ctx).First(&account, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &account, nil
}

// GetByIDs returns the accounts that exist among ids, keyed by id.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]database.Account, error) {
	accounts := make(map[uuid.UUID]database.Account, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}

	var found []database.Account
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, a := range found {
		accounts[a.ID] = a
	}
	return accounts, nil
}

// ListByUser returns the user's accounts, most recently created first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]database.Account, error) {
	var accounts []database.Account
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&accounts).Error
	return accounts, err
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]database.Account, error) {
	q := s.db.WithContext(ctx).Model(&database.Account{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.AccountType != nil {
		q = q.Where("account_type = ?", *f.AccountType)
	}
	if f.VerificationStatus != nil {
		q = q.Where("verification_status = ?", *f.VerificationStatus)
	}

	var accounts []database.Account
	err := q.Order("created_at DESC").Scopes(database.Paginate(f.Limit, f.Offset)).Find(&accounts).Error
	return accounts, err
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&database.Account{}).Count(&n).Error
	return n, err
}

// Update applies a partial update. Changed fields are re-validated and the
// email is stored lowercased.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*database.Account, error) {
	updates := map[string]any{}
	fields := map[string]string{}

	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name == "" {
			fields["name"] = "is required"
		} else {
			updates["name"] = name
		}
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := config.Validate.Var(email, "required,email"); err != nil {
			fields["email"] = "must be a valid email address"
		} else {
			updates["email"] = email
		}
	}
	if in.Phone != nil {
		if phone := strings.TrimSpace(*in.Phone); phone == "" {
			fields["phone"] = "is required"
		} else {
			updates["phone"] = phone
		}
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			fields["status"] = "is invalid"
		} else {
			updates["status"] = *in.Status
		}
	}
	if in.AccountType != nil {
		if !in.AccountType.Valid() {
			fields["accountType"] = "is invalid"
		} else {
			updates["account_type"] = *in.AccountType
		}
	}
	if in.VerificationStatus != nil {
		if !in.VerificationStatus.Valid() {
			fields["verificationStatus"] = "is invalid"
		} else {
			updates["verification_status"] = *in.VerificationStatus
		}
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid account", fields)
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&database.Account{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update account: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetByID(ctx, id)
}
