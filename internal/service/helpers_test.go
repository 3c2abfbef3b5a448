package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/queridometro/internal/auth"
	"github.com/sakif/queridometro/internal/store"
)

// =========================================================================
// FIXTURE
// =========================================================================

// fixture wires every service to one real store in a temp dir. bcrypt runs
// at its minimum cost.
type fixture struct {
	store        *store.Store
	passwords    *auth.PasswordService
	tokens       *auth.TokenService
	auth         *AuthService
	participants *ParticipantService
	catalog      *CatalogService
	votes        *VoteService
	clock        *fakeClock
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := discardLogger()
	passwords := auth.NewPasswordServiceForTest()

	st, err := store.New(store.Options{
		Path:   filepath.Join(t.TempDir(), "db.json"),
		Hasher: passwords,
		Logger: logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)}

	return &fixture{
		store:        st,
		passwords:    passwords,
		tokens:       tokens,
		auth:         NewAuthService(st, tokens, passwords, logger),
		participants: NewParticipantService(st, passwords, logger),
		catalog:      NewCatalogService(st, st, logger),
		votes:        NewVoteService(st, st, st, logger, VoteOptions{Now: clock.Now}),
		clock:        clock,
	}
}

func strPtr(s string) *string { return &s }

var ctx = context.Background()
