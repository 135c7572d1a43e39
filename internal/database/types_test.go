package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoanType(t *testing.T) {
	testCases := []struct {
		input    string
		expected LoanType
		ok       bool
	}{
		{"Personal", LoanPersonal, true},
		{"personal", LoanPersonal, true},
		{"BUSINESS", LoanBusiness, true},
		{" mortgage ", LoanMortgage, true},
		{"Auto", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLoanType(tc.input)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEnumScanRejectsUnknownValues(t *testing.T) {
	var role Role
	require.NoError(t, role.Scan("admin"))
	assert.Equal(t, RoleAdmin, role)
	require.NoError(t, role.Scan([]byte("user")))
	assert.Equal(t, RoleUser, role)
	assert.Error(t, role.Scan("root"))
	assert.Error(t, role.Scan(42))

	var status LeadStatus
	require.NoError(t, status.Scan("pending_documents"))
	assert.Equal(t, LeadPendingDocuments, status)
	assert.Error(t, status.Scan("archived"))

	// Stored loan types are always canonical.
	var lt LoanType
	require.NoError(t, lt.Scan("Mortgage"))
	assert.Error(t, lt.Scan("mortgage"))
}

func TestEnumValueRejectsUnknownValues(t *testing.T) {
	v, err := AccountBusiness.Value()
	require.NoError(t, err)
	assert.Equal(t, "business", v)

	_, err = AccountType("corporate").Value()
	assert.Error(t, err)

	_, err = VerificationStatus("").Value()
	assert.Error(t, err)

	_, err = AccountStatus("suspended").Value()
	assert.NoError(t, err)
}
