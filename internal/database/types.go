package database

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r *Role) Scan(value interface{}) error {
	return scanEnum(value, r, ParseRole)
}

func (r Role) Value() (driver.Value, error) {
	return valueEnum(r, r.Valid())
}

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountInactive  AccountStatus = "inactive"
	AccountPending   AccountStatus = "pending"
	AccountSuspended AccountStatus = "suspended"
)

func ParseAccountStatus(s string) (AccountStatus, error) {
	switch st := AccountStatus(s); st {
	case AccountActive, AccountInactive, AccountPending, AccountSuspended:
		return st, nil
	}
	return "", fmt.Errorf("unknown account status %q", s)
}

func (s AccountStatus) Valid() bool {
	_, err := ParseAccountStatus(string(s))
	return err == nil
}

func (s *AccountStatus) Scan(value interface{}) error {
	return scanEnum(value, s, ParseAccountStatus)
}

func (s AccountStatus) Value() (driver.Value, error) {
	return valueEnum(s, s.Valid())
}

type AccountType string

const (
	AccountIndividual AccountType = "individual"
	AccountBusiness   AccountType = "business"
)

func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case AccountIndividual, AccountBusiness:
		return t, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

func (t AccountType) Valid() bool {
	_, err := ParseAccountType(string(t))
	return err == nil
}

func (t *AccountType) Scan(value interface{}) error {
	return scanEnum(value, t, ParseAccountType)
}

func (t AccountType) Value() (driver.Value, error) {
	return valueEnum(t, t.Valid())
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch v := VerificationStatus(s); v {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return v, nil
	}
	return "", fmt.Errorf("unknown verification status %q", s)
}

func (v VerificationStatus) Valid() bool {
	_, err := ParseVerificationStatus(string(v))
	return err == nil
}

func (v *VerificationStatus) Scan(value interface{}) error {
	return scanEnum(value, v, ParseVerificationStatus)
}

func (v VerificationStatus) Value() (driver.Value, error) {
	return valueEnum(v, v.Valid())
}

type LoanType string

const (
	LoanPersonal LoanType = "Personal"
	LoanBusiness LoanType = "Business"
	LoanMortgage LoanType = "Mortgage"
)

// ParseLoanType matches case-insensitively and returns the canonical form.
func ParseLoanType(s string) (LoanType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "personal":
		return LoanPersonal, nil
	case "business":
		return LoanBusiness, nil
	case "mortgage":
		return LoanMortgage, nil
	}
	return "", fmt.Errorf("unknown loan type %q", s)
}

func (t LoanType) Valid() bool {
	switch t {
	case LoanPersonal, LoanBusiness, LoanMortgage:
		return true
	}
	return false
}

func (t *LoanType) Scan(value interface{}) error {
	return scanEnum(value, t, func(s string) (LoanType, error) {
		if lt := LoanType(s); lt.Valid() {
			return lt, nil
		}
		return "", fmt.Errorf("unknown loan type %q", s)
	})
}

func (t LoanType) Value() (driver.Value, error) {
	return valueEnum(t, t.Valid())
}

type LeadStatus string

const (
	LeadNew              LeadStatus = "new"
	LeadInReview         LeadStatus = "in_review"
	LeadApproved         LeadStatus = "approved"
	LeadRejected         LeadStatus = "rejected"
	LeadPendingDocuments LeadStatus = "pending_documents"
	LeadFunded           LeadStatus = "funded"
)

func ParseLeadStatus(s string) (LeadStatus, error) {
	switch st := LeadStatus(s); st {
	case LeadNew, LeadInReview, LeadApproved, LeadRejected, LeadPendingDocuments, LeadFunded:
		return st, nil
	}
	return "", fmt.Errorf("unknown lead status %q", s)
}

func (s LeadStatus) Valid() bool {
	_, err := ParseLeadStatus(string(s))
	return err == nil
}

func (s *LeadStatus) Scan(value interface{}) error {
	return scanEnum(value, s, ParseLeadStatus)
}

func (s LeadStatus) Value() (driver.Value, error) {
	return valueEnum(s, s.Valid())
}

func scanEnum[T ~string](value interface{}, dst *T, parse func(string) (T, error)) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported Scan, storing driver.Value type %T into type %T", value, *dst)
	}

	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func valueEnum[T ~string](v T, valid bool) (driver.Value, error) {
	if !valid {
		return nil, fmt.Errorf("invalid %T value %q", v, string(v))
	}
	return string(v), nil
}
