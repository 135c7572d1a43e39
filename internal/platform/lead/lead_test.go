package lead

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"leadcapture/internal/apperr"
	"leadcapture/internal/database"
	"leadcapture/internal/database/databasetest"
	"leadcapture/internal/platform/account"
	"leadcapture/internal/platform/user"
)

type fixture struct {
	db      *gorm.DB
	leads   *Service
	user    *database.User
	account *database.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := databasetest.New(t)
	ctx := context.Background()

	u, err := user.NewService(db).Create(ctx, user.CreateInput{Name: "Jane Doe", Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)

	a, err := account.NewService(db).Create(ctx, account.CreateInput{UserID: u.ID, Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0100"})
	require.NoError(t, err)

	return &fixture{db: db, leads: NewService(db), user: u, account: a}
}

func (f *fixture) create(t *testing.T, amount float64, loanType database.LoanType) *database.Lead {
	t.Helper()

	l, err := f.leads.Create(context.Background(), CreateInput{
		AccountID:  f.account.ID,
		UserID:     f.user.ID,
		LoanAmount: amount,
		LoanType:   loanType,
	})
	require.NoError(t, err)
	return l
}

func TestCreateComputesScoreAndRate(t *testing.T) {
	f := newFixture(t)

	l := f.create(t, 100_000, database.LoanMortgage)
	assert.Equal(t, database.LeadNew, l.Status)
	assert.Equal(t, 100, l.LeadScore)
	assert.Equal(t, "5.50%", l.EstimatedRate)

	l = f.create(t, 10_000, database.LoanPersonal)
	assert.Equal(t, 60, l.LeadScore)
	assert.Equal(t, "12.50%", l.EstimatedRate)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name  string
		input CreateInput
		field string
	}{
		{"amount too low", CreateInput{LoanAmount: 999, LoanType: database.LoanPersonal}, "loanAmount"},
		{"amount too high", CreateInput{LoanAmount: 10_000_001, LoanType: database.LoanPersonal}, "loanAmount"},
		{"unknown type", CreateInput{LoanAmount: 5_000, LoanType: "Auto"}, "loanType"},
		{"unknown status", CreateInput{LoanAmount: 5_000, LoanType: database.LoanBusiness, Status: "closed"}, "status"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.AccountID = f.account.ID
			tc.input.UserID = f.user.ID

			_, err := f.leads.Create(ctx, tc.input)
			e := apperr.As(err)
			require.NotNil(t, e)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Contains(t, e.Fields, tc.field)
		})
	}
}

func TestCreateRequiresExistingReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.leads.Create(ctx, CreateInput{AccountID: uuid.New(), UserID: f.user.ID, LoanAmount: 5_000, LoanType: database.LoanPersonal})
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = f.leads.Create(ctx, CreateInput{AccountID: f.account.ID, UserID: uuid.New(), LoanAmount: 5_000, LoanType: database.LoanPersonal})
	assert.ErrorIs(t, err, user.ErrNotFound)

	var n int64
	require.NoError(t, f.db.Model(&database.Lead{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestNotesAndDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, 30_000, database.LoanBusiness)

	_, err := f.leads.AddNote(ctx, l.ID, "first call", &f.user.ID)
	require.NoError(t, err)
	_, err = f.leads.AddNote(ctx, l.ID, "documents requested", nil)
	require.NoError(t, err)
	_, err = f.leads.AddDocument(ctx, l.ID, "payslip.pdf", "https://files.example.com/abc")
	require.NoError(t, err)

	got, err := f.leads.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, got.ProcessingNotes, 2)
	assert.Equal(t, "first call", got.ProcessingNotes[0].Note)
	assert.Equal(t, "documents requested", got.ProcessingNotes[1].Note)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "payslip.pdf", got.Documents[0].Name)

	_, err = f.leads.AddNote(ctx, l.ID, "   ", nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.leads.AddNote(ctx, uuid.New(), "orphan", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, 30_000, database.LoanBusiness)

	sfID := "00Qabc"
	status := database.LeadInReview
	followUp := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	updated, err := f.leads.Update(ctx, l.ID, UpdateInput{Status: &status, SalesforceID: &sfID, FollowUpDate: &followUp})
	require.NoError(t, err)
	assert.Equal(t, database.LeadInReview, updated.Status)
	require.NotNil(t, updated.SalesforceID)
	assert.Equal(t, "00Qabc", *updated.SalesforceID)
	require.NotNil(t, updated.FollowUpDate)
	assert.True(t, followUp.Equal(*updated.FollowUpDate))
	assert.Equal(t, l.LoanAmount, updated.LoanAmount)
	assert.Equal(t, l.LeadScore, updated.LeadScore)

	assigned, err := f.leads.Assign(ctx, l.ID, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, f.user.ID, *assigned.AssignedTo)

	_, err = f.leads.Assign(ctx, l.ID, uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)

	bad := database.LeadStatus("closed")
	_, err = f.leads.Update(ctx, l.ID, UpdateInput{Status: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.leads.Update(ctx, uuid.New(), UpdateInput{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRejectsWithoutPartialWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.create(t, 30_000, database.LoanBusiness)

	bad := database.LeadStatus("lost")
	approved := database.LeadApproved
	missing := uuid.New()

	testCases := []struct {
		name string
		in   UpdateInput
	}{
		{"invalid status with known assignee", UpdateInput{Status: &bad, AssignedTo: &f.user.ID}},
		{"valid status with unknown assignee", UpdateInput{Status: &approved, AssignedTo: &missing}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.leads.Update(ctx, l.ID, tc.in)
			require.Error(t, err)

			got, err := f.leads.GetByID(ctx, l.ID)
			require.NoError(t, err)
			assert.Equal(t, database.LeadNew, got.Status)
			assert.Nil(t, got.AssignedTo)
		})
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	small := f.create(t, 5_000, database.LoanPersonal)
	big := f.create(t, 250_000, database.LoanMortgage)
	f.create(t, 60_000, database.LoanBusiness)

	minAmount := 100_000.0
	leads, err := f.leads.List(ctx, ListFilter{MinAmount: &minAmount})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, big.ID, leads[0].ID)

	maxScore := 60
	leads, err = f.leads.List(ctx, ListFilter{MaxScore: &maxScore})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, small.ID, leads[0].ID)

	business := database.LoanBusiness
	leads, err = f.leads.List(ctx, ListFilter{LoanType: &business, UserID: &f.user.ID})
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	mine, err := f.leads.ListByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.leads.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalLeads)
	assert.Empty(t, empty.StatusBreakdown)

	f.create(t, 10_000, database.LoanPersonal)
	l := f.create(t, 30_000, database.LoanBusiness)
	approved := database.LeadApproved
	_, err = f.leads.Update(ctx, l.ID, UpdateInput{Status: &approved})
	require.NoError(t, err)

	stats, err := f.leads.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalLeads)
	assert.InDelta(t, 20_000, stats.AvgLoanAmount, 0.001)
	require.Len(t, stats.StatusBreakdown, 2)
	assert.Equal(t, database.LeadApproved, stats.StatusBreakdown[0].Status)
	assert.EqualValues(t, 1, stats.StatusBreakdown[0].Count)
	assert.InDelta(t, 30_000, stats.StatusBreakdown[0].TotalAmount, 0.001)
	assert.InDelta(t, 80, stats.StatusBreakdown[0].AvgScore, 0.001)
	assert.Equal(t, database.LeadNew, stats.StatusBreakdown[1].Status)
}
