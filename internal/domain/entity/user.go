package entity

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an account record. Audit references (CreatedBy/UpdatedBy/DeletedBy)
// are stored as plain identifiers and never loaded as associations.
type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email               string    `gorm:"size:100;not null;index" json:"email"`
	Username            string    `gorm:"size:50;not null;index" json:"username"`
	Password            string    `gorm:"size:100;not null;default:''" json:"-"`
	PasswordAuthEnabled bool      `gorm:"not null;default:true" json:"-"`
	FirstName           string    `gorm:"size:100;not null;default:''" json:"first_name"`
	LastName            string    `gorm:"size:100;not null;default:''" json:"last_name"`
	Phone               string    `gorm:"size:20;not null;default:''" json:"phone"`
	Avatar              string    `gorm:"size:255;not null;default:''" json:"avatar"`
	Bio                 string    `gorm:"size:500;not null;default:''" json:"bio"`
	IsActive            bool      `gorm:"not null;default:true" json:"is_active"`
	IsAdmin             bool      `gorm:"not null;default:false" json:"-"`
	EmailVerified       bool      `gorm:"not null;default:false" json:"email_verified"`

	IsDeleted bool       `gorm:"not null;default:false;index" json:"-"`
	DeletedAt *time.Time `gorm:"type:timestamp" json:"deleted_at,omitempty"`

	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	DeletedBy *uuid.UUID `gorm:"type:uuid" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName defines the GORM table name.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the primary key when the caller has not set one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeSave hashes the password unless it is empty or already a bcrypt hash
// (prefixes "$2a$", "$2b$", "$2y$"). Social-only accounts keep an empty hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] failed to hash password for email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HasUsablePassword reports whether password login is possible for this account.
// Accounts created through a social provider carry a random hash with
// PasswordAuthEnabled=false until the owner sets a password explicitly.
func (u *User) HasUsablePassword() bool {
	return u.PasswordAuthEnabled && u.Password != ""
}

// FullName joins first and last name, trimming the gap when one is empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SoftDelete marks the account deleted without removing the row. The email
// stays on the record for audit; uniqueness is enforced only among non-deleted
// accounts.
func (u *User) SoftDelete(by uuid.UUID) {
	now := time.Now()
	u.IsDeleted = true
	u.DeletedAt = &now
	u.DeletedBy = &by
	u.IsActive = false
}

// Restore clears the soft-delete markers.
func (u *User) Restore() {
	u.IsDeleted = false
	u.DeletedAt = nil
	u.DeletedBy = nil
	u.IsActive = true
}
