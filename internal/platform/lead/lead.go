package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"leadcapture/internal/apperr"
	"leadcapture/internal/database"
	"leadcapture/internal/platform/account"
	"leadcapture/internal/platform/scoring"
	"leadcapture/internal/platform/user"
)

const (
	MinLoanAmount = 1_000
	MaxLoanAmount = 10_000_000
)

var ErrNotFound = apperr.NotFound("Lead not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	AccountID  uuid.UUID
	UserID     uuid.UUID
	LoanAmount float64
	LoanType   database.LoanType
	Status     database.LeadStatus
}

type ListFilter struct {
	UserID     *uuid.UUID
	AccountID  *uuid.UUID
	Status     *database.LeadStatus
	LoanType   *database.LoanType
	MinAmount  *float64
	MaxAmount  *float64
	MinScore   *int
	MaxScore   *int
	AssignedTo *uuid.UUID
	Limit      int
	Offset     int
}

type UpdateInput struct {
	Status       *database.LeadStatus `json:"status"`
	AssignedTo   *uuid.UUID           `json:"assignedTo"`
	FollowUpDate *time.Time           `json:"followUpDate"`
	SalesforceID *string              `json:"salesforceId"`
}

type StatusStats struct {
	Status      database.LeadStatus `json:"status"`
	Count       int64               `json:"count"`
	TotalAmount float64             `json:"totalAmount"`
	AvgScore    float64             `json:"avgScore"`
}

type Stats struct {
	TotalLeads      int64         `json:"totalLeads"`
	AvgLoanAmount   float64       `json:"avgLoanAmount"`
	StatusBreakdown []StatusStats `json:"statusBreakdown"`
}

func ValidAmount(amount float64) bool {
	return amount >= MinLoanAmount && amount <= MaxLoanAmount
}

// Create persists a lead with its score and rate derived from amount and
// type. The referenced account and user must exist.
func (s *Service) Create(ctx context.Context, in CreateInput) (*database.Lead, error) {
	fields := map[string]string{}
	if !ValidAmount(in.LoanAmount) {
		fields["loanAmount"] = "Loan amount must be between $1,000 and $10,000,000"
	}
	if !in.LoanType.Valid() {
		fields["loanType"] = "Invalid loan type"
	}
	if in.Status == "" {
		in.Status = database.LeadNew
	}
	if !in.Status.Valid() {
		fields["status"] = "is invalid"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid lead", fields)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var a database.Account
		err := s.db.WithContext(gctx).Select("id").First(&a, "id = ?", in.AccountID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return account.ErrNotFound
		}
		return err
	})
	g.Go(func() error {
		var u database.User
		err := s.db.WithContext(gctx).Select("id").First(&u, "id = ?", in.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.ErrNotFound
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lead := database.Lead{
		AccountID:     in.AccountID,
		UserID:        in.UserID,
		LoanAmount:    in.LoanAmount,
		LoanType:      in.LoanType,
		Status:        in.Status,
		LeadScore:     scoring.LeadScore(in.LoanAmount, in.LoanType),
		EstimatedRate: scoring.EstimatedRate(in.LoanAmount, in.LoanType),
	}

	if err := s.db.WithContext(ctx).Omit("ProcessingNotes", "Documents").Create(&lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	return &lead, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*database.Lead, error) {
	var lead database.Lead

	result := s.db.WithContext(ctx).
		Preload("ProcessingNotes", func(db *gorm.DB) *gorm.DB { return db.Order("added_at, id") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at, id") }).
		First(&lead, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &lead, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]database.Lead, error) {
	var leads []database.Lead
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&leads).Error
	return leads, err
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]database.Lead, error) {
	q := s.db.WithContext(ctx).Model(&database.Lead{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.LoanType != nil {
		q = q.Where("loan_type = ?", *f.LoanType)
	}
	if f.MinAmount != nil {
		q = q.Where("loan_amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("loan_amount <= ?", *f.MaxAmount)
	}
	if f.MinScore != nil {
		q = q.Where("lead_score >= ?", *f.MinScore)
	}
	if f.MaxScore != nil {
		q = q.Where("lead_score <= ?", *f.MaxScore)
	}
	if f.AssignedTo != nil {
		q = q.Where("assigned_to = ?", *f.AssignedTo)
	}

	var leads []database.Lead
	err := q.Order("created_at DESC").Scopes(database.Paginate(f.Limit, f.Offset)).Find(&leads).Error
	return leads, err
}

// Update changes workflow fields only. Amount and type are fixed at creation.
// Every field is checked before the single write, so a rejected input leaves
// the lead untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*database.Lead, error) {
	updates := map[string]any{}

	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("Invalid lead", map[string]string{"status": "is invalid"})
		}
		updates["status"] = *in.Status
	}
	if in.AssignedTo != nil {
		var u database.User
		err := s.db.WithContext(ctx).Select("id").First(&u, "id = ?", *in.AssignedTo).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, user.ErrNotFound
			}
			return nil, err
		}
		updates["assigned_to"] = *in.AssignedTo
	}
	if in.FollowUpDate != nil {
		updates["follow_up_date"] = *in.FollowUpDate
	}
	if in.SalesforceID != nil {
		updates["salesforce_id"] = strings.TrimSpace(*in.SalesforceID)
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&database.Lead{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("failed to update lead: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetByID(ctx, id)
}

// Assign hands the lead to an existing user.
func (s *Service) Assign(ctx context.Context, id, assignee uuid.UUID) (*database.Lead, error) {
	return s.Update(ctx, id, UpdateInput{AssignedTo: &assignee})
}

func (s *Service) exists(ctx context.Context, id uuid.UUID) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&database.Lead{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) AddNote(ctx context.Context, id uuid.UUID, note string, addedBy *uuid.UUID) (*database.LeadNote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperr.Validation("Invalid note", map[string]string{"note": "is required"})
	}
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	n := database.LeadNote{
		LeadID:  id,
		Note:    note,
		AddedBy: addedBy,
		AddedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	return &n, nil
}

func (s *Service) AddDocument(ctx context.Context, id uuid.UUID, name, url string) (*database.LeadDocument, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	d := database.LeadDocument{
		LeadID:     id,
		Name:       name,
		URL:        url,
		UploadedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, fmt.Errorf("failed to add document: %w", err)
	}
	return &d, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&database.Lead{}).Count(&stats.TotalLeads).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&database.Lead{}).
			Select("coalesce(avg(loan_amount), 0)").
			Scan(&stats.AvgLoanAmount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&database.Lead{}).
			Select("status, count(*) as count, coalesce(sum(loan_amount), 0) as total_amount, coalesce(avg(lead_score), 0) as avg_score").
			Group("status").
			Order("status").
			Scan(&stats.StatusBreakdown).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.StatusBreakdown == nil {
		stats.StatusBreakdown = []StatusStats{}
	}
	return &stats, nil
}
