package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFileExtensionAllowed(t *testing.T) {
	svc := NewStorageService(nil, "")

	testCases := []struct {
		filename string
		expected bool
	}{
		{"payslip.pdf", true},
		{"ID.JPG", true},
		{"statement.xlsx", true},
		{"script.exe", false},
		{"archivepdf", false},
		{"noext", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.expected, svc.IsFileExtensionAllowed(tc.filename))
		})
	}
}

func TestGenerateKeyName(t *testing.T) {
	svc := NewStorageService(nil, "https://files.example.com/")

	key := svc.GenerateKeyName("Payslip.PDF")
	assert.Regexp(t, regexp.MustCompile(`^leads/[a-z0-9]{16}\.pdf$`), key)
	assert.NotEqual(t, key, svc.GenerateKeyName("Payslip.PDF"))
	assert.Equal(t, "https://files.example.com/"+key, svc.URL(key))
}
