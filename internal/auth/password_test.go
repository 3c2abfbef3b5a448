package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =========================================================================
// Hash
// =========================================================================

func TestHash(t *testing.T) {
	ps := NewPasswordServiceForTest()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"seeded admin password", "admin123", false},
		{"temporary participant password", "9f2c4a1b", false},
		{"accents", "senhaçãoé", false},
		{"whitespace kept as is", "  com espaços  ", false},
		{"exactly 72 bytes", strings.Repeat("a", MaxPasswordBytes), false},
		// bcrypt would silently truncate this
		{"73 bytes", strings.Repeat("a", MaxPasswordBytes+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := ps.Hash(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, bcrypt.MinCost, cost)
			assert.NoError(t, ps.Verify(hash, tt.password))
		})
	}
}

func TestHash_Salted(t *testing.T) {
	ps := NewPasswordServiceForTest()

	h1, err := ps.Hash("admin123")
	require.NoError(t, err)
	h2, err := ps.Hash("admin123")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

// =========================================================================
// Verify
// =========================================================================

func TestVerify(t *testing.T) {
	ps := NewPasswordServiceForTest()
	hash, err := ps.Hash("admin123")
	require.NoError(t, err)

	tests := []struct {
		name       string
		hash       string
		password   string
		wantErr    bool
		isMismatch bool
	}{
		{"correct", hash, "admin123", false, false},
		{"wrong", hash, "admin124", true, true},
		{"case matters", hash, "ADMIN123", true, true},
		{"empty", hash, "", true, true},
		// a broken hash in the document is not a wrong password
		{"malformed hash", "not-a-bcrypt-hash", "admin123", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ps.Verify(tt.hash, tt.password)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.isMismatch, err == ErrPasswordMismatch)
		})
	}
}

func TestVerify_AcrossCosts(t *testing.T) {
	// documents written by earlier versions hold cost 10 hashes
	hash, err := NewPasswordService(DefaultCost).Hash("admin123")
	require.NoError(t, err)

	assert.NoError(t, NewPasswordServiceForTest().Verify(hash, "admin123"))
}

// =========================================================================
// Cost
// =========================================================================

func TestNewPasswordService_Cost(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultCost},
		{bcrypt.MinCost - 1, DefaultCost},
		{bcrypt.MaxCost + 1, DefaultCost},
		{bcrypt.MinCost, bcrypt.MinCost},
		{12, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPasswordService(tt.in).cost, "cost %d", tt.in)
	}
}
