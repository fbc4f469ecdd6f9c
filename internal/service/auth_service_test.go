package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/pkg/auth"
	"github.com/yourusername/accounts-api/pkg/auth/manager"
)

// ============================================================================
// Mocks shared by the service tests
// ============================================================================

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(userID uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(userID, updates)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(userID uuid.UUID, newPassword string, updatedBy uuid.UUID) error {
	args := m.Called(userID, newPassword, updatedBy)
	return args.Error(0)
}

func (m *MockUserRepository) SoftDelete(userID, deletedBy uuid.UUID) error {
	args := m.Called(userID, deletedBy)
	return args.Error(0)
}

func (m *MockUserRepository) List(limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.User), args.Get(1).(int64), args.Error(2)
}

// MockRefreshTokenRepository implements repository.RefreshTokenRepository
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(token *entity.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) GetByJTI(jti string) (*entity.RefreshToken, error) {
	args := m.Called(jti)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(jti, reason string) error {
	args := m.Called(jti, reason)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) Rotate(oldJTI, reason string, newToken *entity.RefreshToken) error {
	args := m.Called(oldJTI, reason, newToken)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(userID uuid.UUID, reason string) error {
	args := m.Called(userID, reason)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) SweepExpired() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// MockSocialAccountRepository implements repository.SocialAccountRepository
type MockSocialAccountRepository struct {
	mock.Mock
}

func (m *MockSocialAccountRepository) Create(account *entity.SocialAccount) error {
	args := m.Called(account)
	return args.Error(0)
}

func (m *MockSocialAccountRepository) GetByProviderUID(provider, providerUID string) (*entity.SocialAccount, error) {
	args := m.Called(provider, providerUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SocialAccount), args.Error(1)
}

func (m *MockSocialAccountRepository) ListByUser(userID uuid.UUID) ([]entity.SocialAccount, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SocialAccount), args.Error(1)
}

func (m *MockSocialAccountRepository) DeleteGuarded(userID uuid.UUID, provider string) error {
	args := m.Called(userID, provider)
	return args.Error(0)
}

func (m *MockSocialAccountRepository) DeleteByUserID(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockResetTokenRepository implements repository.ResetTokenRepository
type MockResetTokenRepository struct {
	mock.Mock
}

func (m *MockResetTokenRepository) Store(token string, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(token, userID, ttl)
	return args.Error(0)
}

func (m *MockResetTokenRepository) Consume(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// ============================================================================
// Test helpers
// ============================================================================

const testJWTSecret = "test-secret-test-secret-test-secret!"

func newTestTokenManager(t *testing.T, userRepo *MockUserRepository, refreshRepo *MockRefreshTokenRepository) *manager.TokenManager {
	t.Helper()
	jwtService, err := auth.NewJWTService(testJWTSecret, time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	tm, err := manager.NewTokenManager(jwtService, refreshRepo, userRepo)
	require.NoError(t, err)
	return tm
}

func newTestAuthService(t *testing.T, userRepo *MockUserRepository, refreshRepo *MockRefreshTokenRepository) *AuthService {
	t.Helper()
	svc, err := NewAuthService(userRepo, newTestTokenManager(t, userRepo, refreshRepo), nil)
	require.NoError(t, err)
	return svc
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hashed)
}

// ============================================================================
// AuthService tests
// ============================================================================

func TestAuthService_RegisterUser_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)

	mockUserRepo.On("GetByEmail", "jane@example.com").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByUsername", "jane").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	authService := newTestAuthService(t, mockUserRepo, mockRefreshRepo)

	// Act
	user, tokens, err := authService.RegisterUser(context.Background(), RegisterInput{
		Email:           "Jane@Example.com",
		Password:        "Str0ng!horse",
		PasswordConfirm: "Str0ng!horse",
		FirstName:       "Jane",
		LastName:        "Doe",
	}, nil)

	// Assert
	require.NoError(t, err, "registration should succeed")
	require.NotNil(t, user)
	assert.Equal(t, "jane@example.com", user.Email, "email should be normalized to lowercase")
	assert.Equal(t, "jane", user.Username, "username should come from the email local part")
	assert.Nil(t, user.CreatedBy, "self-registration does not record a creator")
	assert.True(t, user.IsActive)
	require.NotNil(t, tokens)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	mockUserRepo.AssertExpectations(t)
	mockRefreshRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_UsernameCollisionGetsSuffix(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)

	taken := &entity.User{ID: uuid.New(), Username: "jane"}
	mockUserRepo.On("GetByEmail", "jane@other.org").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByUsername", "jane").Return(taken, nil)
	mockUserRepo.On("GetByUsername", "jane1").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	authService := newTestAuthService(t, mockUserRepo, mockRefreshRepo)

	// Act
	user, _, err := authService.RegisterUser(context.Background(), RegisterInput{
		Email:           "jane@other.org",
		Password:        "Str0ng!horse",
		PasswordConfirm: "Str0ng!horse",
	}, nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "jane1", user.Username, "taken handle should get a numeric suffix")
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_ReusesHandleFreedBySoftDelete(t *testing.T) {
	// The username lookup sees only live accounts and the unique index is
	// partial on is_deleted, so a handle held by a soft-deleted account is
	// free to take again instead of failing the insert.
	mockUserRepo := new(MockUserRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)

	mockUserRepo.On("GetByEmail", "jane@example.com").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByUsername", "jane").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	authService := newTestAuthService(t, mockUserRepo, mockRefreshRepo)

	// Act
	user, _, err := authService.RegisterUser(context.Background(), RegisterInput{
		Email:           "jane@example.com",
		Password:        "Str0ng!horse",
		PasswordConfirm: "Str0ng!horse",
	}, nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "jane", user.Username, "the freed handle is reused without a suffix")
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_AdminCreatedRecordsActor(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)
	actorID := uuid.New()

	mockUserRepo.On("GetByEmail", "staff@example.com").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByUsername", "staff").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("Create", mock.AnythingOfType("*entity.User")).Return(nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	authService := newTestAuthService(t, mockUserRepo, mockRefreshRepo)

	// Act
	user, _, err := authService.RegisterUser(context.Background(), RegisterInput{
		Email:           "staff@example.com",
		Password:        "Str0ng!horse",
		PasswordConfirm: "Str0ng!horse",
	}, &actorID)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, user.CreatedBy)
	assert.Equal(t, actorID, *user.CreatedBy, "admin-created accounts record who created them")
}

func TestAuthService_RegisterUser_PasswordMismatch(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	authService := newTestAuthService(t, mockUserRepo, new(MockRefreshTokenRepository))

	// Act
	user, tokens, err := authService.RegisterUser(context.Background(), RegisterInput{
		Email:           "jane@example.com",
		Password:        "Str0ng!horse",
		PasswordConfirm: "different!horse",
	}, nil)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, user)
	assert.Nil(t, tokens)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	existing := &entity.User{ID: uuid.New(), Email: "taken@example.com"}
	mockUserRepo.On("GetByEmail", "taken@example.com").Return(existing, nil)

	authService := newTestAuthService(t, mockUserRepo, new(MockRefreshTokenRepository))

	// Act
	user, _, err := authService.RegisterUser(context.Background(), RegisterInput{
		Email:           "taken@example.com",
		Password:        "Str0ng!horse",
		PasswordConfirm: "Str0ng!horse",
	}, nil)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Nil(t, user)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_AuthenticateUser_UniformInvalidCredentials(t *testing.T) {
	// Unknown email, wrong password and a password-less social account must
	// all produce the identical error so responses cannot be used to probe
	// which emails are registered.
	mockUserRepo := new(MockUserRepository)

	hashed := hashPassword(t, "correct-horse-battery")
	known := &entity.User{
		ID:                  uuid.New(),
		Email:               "known@example.com",
		Password:            hashed,
		PasswordAuthEnabled: true,
		IsActive:            true,
	}
	socialOnly := &entity.User{
		ID:                  uuid.New(),
		Email:               "social@example.com",
		Password:            hashed,
		PasswordAuthEnabled: false,
		IsActive:            true,
	}

	mockUserRepo.On("GetByEmail", "unknown@example.com").Return(nil, apperrors.ErrNotFound)
	mockUserRepo.On("GetByEmail", "known@example.com").Return(known, nil)
	mockUserRepo.On("GetByEmail", "social@example.com").Return(socialOnly, nil)

	authService := newTestAuthService(t, mockUserRepo, new(MockRefreshTokenRepository))

	_, errUnknown := authService.AuthenticateUser(context.Background(), "unknown@example.com", "whatever12")
	_, errWrongPass := authService.AuthenticateUser(context.Background(), "known@example.com", "not-the-password")
	_, errNoPassword := authService.AuthenticateUser(context.Background(), "social@example.com", "correct-horse-battery")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPass)
	require.Error(t, errNoPassword)
	assert.ErrorIs(t, errUnknown, apperrors.ErrValidation, "credential failures answer as bad input, not as a failed session")
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error(), "unknown email and wrong password must be indistinguishable")
	assert.Equal(t, errUnknown.Error(), errNoPassword.Error(), "unusable password must be indistinguishable")
}

func TestAuthService_AuthenticateUser_DisabledAccount(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	disabled := &entity.User{
		ID:                  uuid.New(),
		Email:               "off@example.com",
		Password:            hashPassword(t, "correct-horse-battery"),
		PasswordAuthEnabled: true,
		IsActive:            false,
	}
	mockUserRepo.On("GetByEmail", "off@example.com").Return(disabled, nil)

	authService := newTestAuthService(t, mockUserRepo, new(MockRefreshTokenRepository))

	// Act
	_, err := authService.AuthenticateUser(context.Background(), "off@example.com", "correct-horse-battery")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "valid credentials on a disabled account is a distinct failure")
}

func TestAuthService_LoginUser_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	mockRefreshRepo := new(MockRefreshTokenRepository)
	userID := uuid.New()
	user := &entity.User{
		ID:                  userID,
		Email:               "jane@example.com",
		Username:            "jane",
		Password:            hashPassword(t, "correct-horse-battery"),
		PasswordAuthEnabled: true,
		IsActive:            true,
	}
	mockUserRepo.On("GetByEmail", "jane@example.com").Return(user, nil)
	mockRefreshRepo.On("Create", mock.AnythingOfType("*entity.RefreshToken")).Return(nil)

	authService := newTestAuthService(t, mockUserRepo, mockRefreshRepo)

	// Act
	got, tokens, err := authService.LoginUser(context.Background(), "Jane@example.com ", "correct-horse-battery")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, userID, got.ID)
	require.NotNil(t, tokens)
	assert.Equal(t, userID, tokens.UserID)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)
	mockRefreshRepo.AssertExpectations(t)
}

func TestAuthService_LogoutUser_InvalidTokenIsStillSuccess(t *testing.T) {
	// A garbage refresh token means the session is already dead, which is
	// what logout wanted.
	authService := newTestAuthService(t, new(MockUserRepository), new(MockRefreshTokenRepository))

	err := authService.LogoutUser(context.Background(), "not-a-jwt")

	assert.NoError(t, err)
}

func TestAuthService_ChangePassword_WrongOldPassword(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	userID := uuid.New()
	user := &entity.User{
		ID:                  userID,
		Email:               "jane@example.com",
		Password:            hashPassword(t, "old-password-1"),
		PasswordAuthEnabled: true,
		IsActive:            true,
	}
	mockUserRepo.On("GetByID", userID).Return(user, nil)

	authService := newTestAuthService(t, mockUserRepo, new(MockRefreshTokenRepository))

	// Act
	err := authService.ChangePassword(context.Background(), userID, "wrong-old", "NewStr0ng!pass", "NewStr0ng!pass")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	mockUserRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword_ConfirmationMismatch(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	userID := uuid.New()
	user := &entity.User{
		ID:                  userID,
		Email:               "jane@example.com",
		Password:            hashPassword(t, "old-password-1"),
		PasswordAuthEnabled: true,
	}
	mockUserRepo.On("GetByID", userID).Return(user, nil)

	authService := newTestAuthService(t, mockUserRepo, new(MockRefreshTokenRepository))

	// Act
	err := authService.ChangePassword(context.Background(), userID, "old-password-1", "NewStr0ng!pass", "OtherStr0ng!pass")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockUserRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	userID := uuid.New()
	user := &entity.User{
		ID:                  userID,
		Email:               "jane@example.com",
		Username:            "jane",
		Password:            hashPassword(t, "old-password-1"),
		PasswordAuthEnabled: true,
	}
	mockUserRepo.On("GetByID", userID).Return(user, nil)
	mockUserRepo.On("UpdatePassword", userID, "NewStr0ng!pass", userID).Return(nil)

	authService := newTestAuthService(t, mockUserRepo, new(MockRefreshTokenRepository))

	// Act
	err := authService.ChangePassword(context.Background(), userID, "old-password-1", "NewStr0ng!pass", "NewStr0ng!pass")

	// Assert
	require.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
}

func TestGenerateUniqueUsername_SanitizesLocalPart(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("GetByUsername", "jane.doe42").Return(nil, apperrors.ErrNotFound)

	username, err := generateUniqueUsername(mockUserRepo, "Jane.Doe+42@example.com")

	require.NoError(t, err)
	assert.Equal(t, "jane.doe42", username, "local part should be lowercased and stripped of unsupported characters")
}
