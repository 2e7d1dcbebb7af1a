package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/auth"
	"tiendero/internal/testutil"
)

type userRepo struct {
	users map[id.ID]*auth.User
}

func newUserRepo() *userRepo {
	return &userRepo{users: make(map[id.ID]*auth.User)}
}

func (r *userRepo) Create(ctx context.Context, u *auth.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *userRepo) Exists(ctx context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) Update(ctx context.Context, u *auth.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *userRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int, error) {
	var out []auth.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

type tokenRepo struct {
	tokens map[string]*auth.RefreshToken
}

func newTokenRepo() *tokenRepo {
	return &tokenRepo{tokens: make(map[string]*auth.RefreshToken)}
}

func (r *tokenRepo) SaveRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	r.tokens[t.TokenHash] = t
	return nil
}

func (r *tokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", tokenHash)
	}
	return t, nil
}

func (r *tokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	for _, t := range r.tokens {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *tokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (r *tokenRepo) activeCount(userID id.ID) int {
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && t.IsValid() {
			n++
		}
	}
	return n
}

func newAuthFixture(t *testing.T) (*auth.Service, *userRepo, *tokenRepo, *auth.User) {
	t.Helper()

	users := newUserRepo()
	tokens := newTokenRepo()

	cfg := auth.DefaultServiceConfig()
	cfg.MaxLoginAttempts = 3

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	svc := auth.NewService(users, tokens, testutil.TxManager{}, jwtService, cfg)

	hash, err := bcrypt.GenerateFromPassword([]byte("Correct123!"), bcrypt.MinCost)
	require.NoError(t, err)
	user := auth.NewAdmin("admin@test.local", string(hash))
	user.Name = "Test Admin"
	require.NoError(t, users.Create(context.Background(), user))

	return svc, users, tokens, user
}

func TestLogin_Success(t *testing.T) {
	svc, _, _, user := newAuthFixture(t)

	pair, loggedIn, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "Correct123!",
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotNil(t, loggedIn.LastLoginAt)
}

func TestLogin_UnknownEmailUnauthorized(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "nobody@test.local",
		Password: "whatever1",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLogin_WrongPasswordCountsAttempts(t *testing.T) {
	svc, users, _, user := newAuthFixture(t)

	for i := 0; i < 2; i++ {
		_, _, err := svc.Login(context.Background(), auth.Credentials{
			Email:    "admin@test.local",
			Password: "wrong",
		})
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	}
	assert.Equal(t, 2, users.users[user.ID].FailedLoginAttempts)
	assert.False(t, users.users[user.ID].IsLocked())
}

func TestLogin_LockoutAfterMaxAttempts(t *testing.T) {
	svc, users, _, user := newAuthFixture(t)

	for i := 0; i < 3; i++ {
		_, _, _ = svc.Login(context.Background(), auth.Credentials{
			Email:    "admin@test.local",
			Password: "wrong",
		})
	}
	assert.True(t, users.users[user.ID].IsLocked())

	// Even the correct password is rejected while locked.
	_, _, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "Correct123!",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeAccountLocked, appErr.Code)
}

func TestLogin_SuccessResetsCounter(t *testing.T) {
	svc, users, _, user := newAuthFixture(t)

	_, _, _ = svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "wrong",
	})
	require.Equal(t, 1, users.users[user.ID].FailedLoginAttempts)

	_, _, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "Correct123!",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, users.users[user.ID].FailedLoginAttempts)
}

func TestLogin_DisabledAccountForbidden(t *testing.T) {
	svc, users, _, user := newAuthFixture(t)
	users.users[user.ID].IsActive = false

	_, _, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "Correct123!",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestRefreshToken_Rotation(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	pair, _, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "Correct123!",
	})
	require.NoError(t, err)

	next, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	svc, _, tokens, user := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "Correct123!",
	})
	require.NoError(t, err)
	require.Equal(t, 1, tokens.activeCount(user.ID))

	require.NoError(t, svc.Logout(context.Background(), user.ID))
	assert.Equal(t, 0, tokens.activeCount(user.ID))
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "admin@test.local",
		Password: "Another123!",
		IsAdmin:  true,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestRegister_ShortPasswordRejected(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "new@test.local",
		Password: "short",
		IsAdmin:  true,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRegister_StoreUserRequiresStore(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "clerk@test.local",
		Password: "Clerk1234!",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	storeID := id.New()
	user, err := svc.Register(context.Background(), auth.RegisterRequest{
		Email:    "clerk@test.local",
		Password: "Clerk1234!",
		StoreID:  storeID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, user.StoreID)
	assert.Equal(t, storeID, *user.StoreID)
	assert.False(t, user.IsAdmin)
}

func TestChangePassword_WrongCurrentRejected(t *testing.T) {
	svc, _, _, user := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), user.ID, "wrong", "BrandNew123!")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestChangePassword_RevokesOutstandingTokens(t *testing.T) {
	svc, _, tokens, user := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "Correct123!",
	})
	require.NoError(t, err)
	require.Equal(t, 1, tokens.activeCount(user.ID))

	err = svc.ChangePassword(context.Background(), user.ID, "Correct123!", "BrandNew123!")
	require.NoError(t, err)
	assert.Equal(t, 0, tokens.activeCount(user.ID))

	_, _, err = svc.Login(context.Background(), auth.Credentials{
		Email:    "admin@test.local",
		Password: "BrandNew123!",
	})
	require.NoError(t, err)
}

func TestJWT_RoundTripCarriesScope(t *testing.T) {
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))

	storeID := id.New()
	user := auth.NewStoreUser("clerk@test.local", "hash", storeID)
	user.Name = "Clerk"

	token, _, err := jwtService.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, storeID.String(), claims.StoreID)
	assert.False(t, claims.IsAdmin)
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	issuer := auth.NewJWTService(auth.DefaultJWTConfig("secret-a"))
	verifier := auth.NewJWTService(auth.DefaultJWTConfig("secret-b"))

	user := auth.NewAdmin("admin@test.local", "hash")
	token, _, err := issuer.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}
