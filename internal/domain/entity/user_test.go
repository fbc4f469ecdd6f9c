package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BeforeSave never touches the tx, but the hook signature requires one.
var mockTx *gorm.DB = nil

func TestUser_BeforeSave_HashesPassword(t *testing.T) {
	// Arrange
	plainPassword := "mySecretPassword123"
	user := &User{
		Username: "jane",
		Email:    "jane@example.com",
		Password: plainPassword,
	}

	// Act
	err := user.BeforeSave(mockTx)

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, plainPassword, user.Password, "password must be replaced by its hash")
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plainPassword))
	assert.NoError(t, err, "the stored hash must match the original password")
}

func TestUser_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	// Arrange
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("alreadyHashed"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{
		Username: "jane",
		Email:    "jane@example.com",
		Password: string(hashedPassword),
	}
	originalHash := user.Password

	// Act
	err = user.BeforeSave(mockTx)

	// Assert: no double hashing.
	require.NoError(t, err)
	assert.Equal(t, originalHash, user.Password)
}

func TestUser_BeforeSave_SkipsEmptyPassword(t *testing.T) {
	user := &User{Username: "jane", Email: "jane@example.com", Password: ""}

	err := user.BeforeSave(mockTx)

	require.NoError(t, err)
	assert.Empty(t, user.Password)
}

func TestUser_BeforeCreate_AssignsID(t *testing.T) {
	user := &User{Email: "jane@example.com"}

	err := user.BeforeCreate(mockTx)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)

	// An explicitly set ID is kept.
	fixed := uuid.New()
	user2 := &User{ID: fixed}
	require.NoError(t, user2.BeforeCreate(mockTx))
	assert.Equal(t, fixed, user2.ID)
}

func TestUser_CheckPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &User{Password: string(hashed)}

	assert.True(t, user.CheckPassword("correct-horse"))
	assert.False(t, user.CheckPassword("wrong-horse"))
}

func TestUser_HasUsablePassword(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("whatever1"), bcrypt.DefaultCost)

	withPassword := &User{Password: string(hashed), PasswordAuthEnabled: true}
	socialOnly := &User{Password: string(hashed), PasswordAuthEnabled: false}
	empty := &User{Password: "", PasswordAuthEnabled: true}

	assert.True(t, withPassword.HasUsablePassword())
	assert.False(t, socialOnly.HasUsablePassword(), "a social-only account has no usable password even with a stored hash")
	assert.False(t, empty.HasUsablePassword())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", (&User{FirstName: "Jane", LastName: "Doe"}).FullName())
	assert.Equal(t, "Jane", (&User{FirstName: "Jane"}).FullName())
	assert.Equal(t, "Doe", (&User{LastName: "Doe"}).FullName())
	assert.Equal(t, "", (&User{}).FullName())
}

func TestUser_SoftDeleteAndRestore(t *testing.T) {
	// Arrange
	actor := uuid.New()
	user := &User{ID: uuid.New(), Email: "jane@example.com", IsActive: true}

	// Act
	user.SoftDelete(actor)

	// Assert: the row keeps its data, only the markers flip.
	assert.True(t, user.IsDeleted)
	assert.False(t, user.IsActive)
	require.NotNil(t, user.DeletedAt)
	require.NotNil(t, user.DeletedBy)
	assert.Equal(t, actor, *user.DeletedBy)
	assert.Equal(t, "jane@example.com", user.Email, "email stays on the record for audit")

	user.Restore()

	assert.False(t, user.IsDeleted)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.DeletedAt)
	assert.Nil(t, user.DeletedBy)
}

func TestRefreshToken_Lifecycle(t *testing.T) {
	userID := uuid.New()
	token := NewRefreshToken(userID, "jti-1", time.Now(), time.Now().Add(time.Hour))

	assert.True(t, token.IsActive())

	token.Revoke("logout")

	assert.True(t, token.Revoked)
	assert.False(t, token.IsActive())
	assert.Equal(t, "logout", token.Reason)
	require.NotNil(t, token.RevokedAt)

	expired := NewRefreshToken(userID, "jti-2", time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	assert.False(t, expired.IsActive(), "an expired record cannot back a refresh even when unrevoked")
}
