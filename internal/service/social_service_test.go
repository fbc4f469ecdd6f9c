package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/internal/service/provider"
)

// stubProvider serves a fixed profile without hitting any provider API.
type stubProvider struct {
	name    string
	profile *provider.Profile
	err     error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchProfile(ctx context.Context, accessToken string) (*provider.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

func newTestSocialService(
	t *testing.T,
	userRepo *MockUserRepository,
	socialRepo *MockSocialAccountRepository,
	refreshRepo *MockRefreshTokenRepository,
	providers ...provider.Provider,
) *SocialService {
	t.Helper()
	svc, err := NewSocialService(userRepo, socialRepo, newTestTokenManager(t, userRepo, refreshRepo), provider.NewRegistry(providers...))
	require.NoError(t, err)
	return svc
}

func TestSocialService_LoginWithProvider_ExistingLink(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	mockSocialRepo := new(MockSocialAccountRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)

	userID := uuid.New()
	user := &entity.User{ID: userID, Email: "jane@example.com", IsActive: true}
	link := &entity.SocialAccount{UserID: userID, Provider: "google", ProviderUID: "uid-123"}

	mockSocialRepo.On("GetByProviderUID", "google", "uid-123").Return(link, nil)
	mockUserRepo.On("GetByID", userID).Return(user, nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	google := &stubProvider{name: "google", profile: &provider.Profile{UID: "uid-123", Email: "jane@example.com"}}
	svc := newTestSocialService(t, mockUserRepo, mockSocialRepo, mockRefreshRepo, google)

	// Act
	got, tokens, err := svc.LoginWithProvider(context.Background(), "google", "provider-token")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, userID, got.ID)
	require.NotNil(t, tokens)
	assert.Equal(t, userID, tokens.UserID)
	mockSocialRepo.AssertExpectations(t)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSocialService_LoginWithProvider_LinksByEmail(t *testing.T) {
	// An account registered with a password and the same email gets the
	// identity attached instead of a duplicate account.
	mockUserRepo := new(MockUserRepository)
	mockSocialRepo := new(MockSocialAccountRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)

	userID := uuid.New()
	existing := &entity.User{ID: userID, Email: "jane@example.com", IsActive: true}

	mockSocialRepo.On("GetByProviderUID", "github", "gh-7").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByEmail", "jane@example.com").Return(existing, nil)
	mockSocialRepo.On("Create", mock.AnythingOfType("*entity.SocialAccount")).Return(nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	github := &stubProvider{name: "github", profile: &provider.Profile{UID: "gh-7", Email: "Jane@Example.com", Name: "Jane Doe"}}
	svc := newTestSocialService(t, mockUserRepo, mockSocialRepo, mockRefreshRepo, github)

	// Act
	got, _, err := svc.LoginWithProvider(context.Background(), "github", "provider-token")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, userID, got.ID)
	mockSocialRepo.AssertCalled(t, "Create", mock.MatchedBy(func(a *entity.SocialAccount) bool {
		return a.UserID == userID && a.Provider == "github" && a.ProviderUID == "gh-7" && a.ProviderEmail == "jane@example.com"
	}))
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSocialService_LoginWithProvider_AutoSignup(t *testing.T) {
	// First-time login with an unknown email creates an account without a
	// usable password.
	mockUserRepo := new(MockUserRepository)
	mockSocialRepo := new(MockSocialAccountRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)

	mockSocialRepo.On("GetByProviderUID", "google", "uid-9").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByEmail", "new@example.com").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByUsername", "new").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)
	mockSocialRepo.On("Create", mock.AnythingOfType("*entity.SocialAccount")).Return(nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	google := &stubProvider{name: "google", profile: &provider.Profile{
		UID:           "uid-9",
		Email:         "new@example.com",
		EmailVerified: true,
		Name:          "New Person",
		Picture:       "https://example.com/p.jpg",
	}}
	svc := newTestSocialService(t, mockUserRepo, mockSocialRepo, mockRefreshRepo, google)

	// Act
	user, tokens, err := svc.LoginWithProvider(context.Background(), "google", "provider-token")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "new", user.Username)
	assert.False(t, user.PasswordAuthEnabled, "auto-signup accounts cannot log in with a password")
	assert.True(t, user.EmailVerified, "provider-verified email carries over")
	assert.Equal(t, "New", user.FirstName)
	assert.Equal(t, "Person", user.LastName)
	require.NotNil(t, tokens)
	mockUserRepo.AssertExpectations(t)
	mockSocialRepo.AssertExpectations(t)
}

func TestSocialService_LoginWithProvider_BadProviderToken(t *testing.T) {
	google := &stubProvider{name: "google", err: errors.New("401 from provider")}
	svc := newTestSocialService(t, new(MockUserRepository), new(MockSocialAccountRepository), new(MockRefreshTokenRepository), google)

	_, _, err := svc.LoginWithProvider(context.Background(), "google", "expired-token")

	assert.ErrorIs(t, err, ErrProviderTokenInvalid)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "a rejected provider token is bad request input")
}

func TestSocialService_LoginWithProvider_UnknownProvider(t *testing.T) {
	svc := newTestSocialService(t, new(MockUserRepository), new(MockSocialAccountRepository), new(MockRefreshTokenRepository))

	_, _, err := svc.LoginWithProvider(context.Background(), "myspace", "token")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSocialService_LoginWithProvider_DisabledAccount(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	mockSocialRepo := new(MockSocialAccountRepository)

	userID := uuid.New()
	disabled := &entity.User{ID: userID, Email: "off@example.com", IsActive: false}
	link := &entity.SocialAccount{UserID: userID, Provider: "google", ProviderUID: "uid-1"}

	mockSocialRepo.On("GetByProviderUID", "google", "uid-1").Return(link, nil)
	mockUserRepo.On("GetByID", userID).Return(disabled, nil)

	google := &stubProvider{name: "google", profile: &provider.Profile{UID: "uid-1", Email: "off@example.com"}}
	svc := newTestSocialService(t, mockUserRepo, mockSocialRepo, new(MockRefreshTokenRepository), google)

	// Act
	_, _, err := svc.LoginWithProvider(context.Background(), "google", "provider-token")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSocialService_Disconnect_Success(t *testing.T) {
	// Arrange
	mockSocialRepo := new(MockSocialAccountRepository)
	userID := uuid.New()
	mockSocialRepo.On("DeleteGuarded", userID, "google").Return(nil)

	google := &stubProvider{name: "google"}
	svc := newTestSocialService(t, new(MockUserRepository), mockSocialRepo, new(MockRefreshTokenRepository), google)

	// Act
	err := svc.Disconnect(context.Background(), userID, "google")

	// Assert
	require.NoError(t, err)
	mockSocialRepo.AssertExpectations(t)
}

func TestSocialService_Disconnect_LastAuthMethod(t *testing.T) {
	// Removing the only identity of a password-less account must fail so the
	// owner is not locked out.
	mockSocialRepo := new(MockSocialAccountRepository)
	userID := uuid.New()
	mockSocialRepo.On("DeleteGuarded", userID, "google").Return(repository.ErrLastAuthMethod)

	google := &stubProvider{name: "google"}
	svc := newTestSocialService(t, new(MockUserRepository), mockSocialRepo, new(MockRefreshTokenRepository), google)

	err := svc.Disconnect(context.Background(), userID, "google")

	assert.ErrorIs(t, err, ErrLastAuthMethod)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSocialService_Disconnect_UnlinkedProviderStillGuarded(t *testing.T) {
	// An account whose only way in is one identity gets the last-method
	// answer even when it names a provider it never linked; the guard runs
	// before the link lookup.
	mockSocialRepo := new(MockSocialAccountRepository)
	userID := uuid.New()
	mockSocialRepo.On("DeleteGuarded", userID, "github").Return(repository.ErrLastAuthMethod)

	github := &stubProvider{name: "github"}
	svc := newTestSocialService(t, new(MockUserRepository), mockSocialRepo, new(MockRefreshTokenRepository), github)

	err := svc.Disconnect(context.Background(), userID, "github")

	assert.ErrorIs(t, err, ErrLastAuthMethod)
}

func TestSocialService_Disconnect_NoLink(t *testing.T) {
	mockSocialRepo := new(MockSocialAccountRepository)
	userID := uuid.New()
	mockSocialRepo.On("DeleteGuarded", userID, "facebook").Return(apperrors.ErrNotFound)

	facebook := &stubProvider{name: "facebook"}
	svc := newTestSocialService(t, new(MockUserRepository), mockSocialRepo, new(MockRefreshTokenRepository), facebook)

	err := svc.Disconnect(context.Background(), userID, "facebook")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
