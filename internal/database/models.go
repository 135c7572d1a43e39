package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string     `json:"name" gorm:"not null"`
	Email        string     `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Phone        *string    `json:"phone"`
	Role         Role       `json:"role" gorm:"type:varchar(16);not null;index"`
	IsActive     bool       `json:"isActive" gorm:"not null"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

type Account struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID          `json:"userId" gorm:"type:uuid;not null;index"`
	Name               string             `json:"name" gorm:"not null"`
	Email              string             `json:"email" gorm:"not null"`
	Phone              string             `json:"phone" gorm:"not null"`
	Status             AccountStatus      `json:"status" gorm:"type:varchar(16);not null"`
	AccountType        AccountType        `json:"accountType" gorm:"type:varchar(16);not null"`
	VerificationStatus VerificationStatus `json:"verificationStatus" gorm:"type:varchar(16);not null"`
	CreatedAt          time.Time          `json:"createdAt" gorm:"index"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func (a *Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AccountActive
	}
	if a.AccountType == "" {
		a.AccountType = AccountIndividual
	}
	if a.VerificationStatus == "" {
		a.VerificationStatus = VerificationPending
	}
	return nil
}

type Lead struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	AccountID       uuid.UUID      `json:"accountId" gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index"`
	LoanAmount      float64        `json:"loanAmount" gorm:"not null"`
	LoanType        LoanType       `json:"loanType" gorm:"type:varchar(16);not null"`
	Status          LeadStatus     `json:"status" gorm:"type:varchar(32);not null;index"`
	LeadScore       int            `json:"leadScore" gorm:"not null"`
	EstimatedRate   string         `json:"estimatedRate" gorm:"not null"`
	SalesforceID    *string        `json:"salesforceId"`
	AssignedTo      *uuid.UUID     `json:"assignedTo" gorm:"type:uuid;index"`
	FollowUpDate    *time.Time     `json:"followUpDate"`
	ProcessingNotes []LeadNote     `json:"processingNotes" gorm:"foreignKey:LeadID"`
	Documents       []LeadDocument `json:"documents" gorm:"foreignKey:LeadID"`
	CreatedAt       time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (l *Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = LeadNew
	}
	return nil
}

type LeadNote struct {
	ID      uint       `json:"id" gorm:"primaryKey"`
	LeadID  uuid.UUID  `json:"-" gorm:"type:uuid;not null;index"`
	Note    string     `json:"note" gorm:"not null"`
	AddedBy *uuid.UUID `json:"addedBy" gorm:"type:uuid"`
	AddedAt time.Time  `json:"addedAt" gorm:"not null"`
}

func (n *LeadNote) TableName() string {
	return "lead_notes"
}

type LeadDocument struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LeadID     uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Name       string    `json:"name" gorm:"not null"`
	URL        string    `json:"url" gorm:"not null"`
	UploadedAt time.Time `json:"uploadedAt" gorm:"not null"`
}

func (d *LeadDocument) TableName() string {
	return "lead_documents"
}
