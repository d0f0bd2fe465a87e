// Package models contains data structures for the forum's domain models.
package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Role is the caller role claimed by the authentication layer.
type Role string

const (
	// RoleMember is a tenant-local account stored in the tenant database.
	RoleMember Role = "member"
	// RoleStaff is a privileged account stored in the central database.
	RoleStaff Role = "staff"
	// RoleAdmin is an administrator account stored in the central database.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsPrivileged reports whether the role may create meetings and archive.
func (r Role) IsPrivileged() bool {
	return r == RoleStaff || r == RoleAdmin
}

// IsAdmin reports whether the role is an administrator.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsCentral reports whether accounts with this role live in the central store.
func (r Role) IsCentral() bool {
	return r != RoleMember
}

// UserRef identifies an account across both identity spaces.
type UserRef struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// Ref builds a UserRef.
func Ref(id uint, role Role) UserRef {
	return UserRef{ID: id, Role: role}
}

func (r UserRef) String() string {
	return fmt.Sprintf("%s:%d", r.Role, r.ID)
}

// Is reports whether r and other name the same account.
func (r UserRef) Is(other UserRef) bool {
	return r.ID == other.ID && r.Role.IsCentral() == other.Role.IsCentral()
}

// UserSummary is the normalized display shape for either identity space.
type UserSummary struct {
	ID        uint   `json:"id"`
	Handle    string `json:"handle"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Image     string `json:"image,omitempty"`
	Role      Role   `json:"role"`
}

// Ref returns the summary's account reference.
func (u *UserSummary) Ref() UserRef {
	return UserRef{ID: u.ID, Role: u.Role}
}

// Member is a tenant-local account.
type Member struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Handle    string         `gorm:"size:64;uniqueIndex;not null" json:"handle"`
	FirstName string         `gorm:"size:100" json:"first_name"`
	LastName  string         `gorm:"size:100" json:"last_name"`
	Email     string         `gorm:"size:255;index" json:"email"`
	Image     string         `json:"image,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Summary normalizes the member into a UserSummary.
func (m *Member) Summary() *UserSummary {
	return &UserSummary{
		ID:        m.ID,
		Handle:    m.Handle,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Image:     m.Image,
		Role:      RoleMember,
	}
}

// Staff is a central account shared across tenants.
type Staff struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Handle    string         `gorm:"size:64;uniqueIndex;not null" json:"handle"`
	FirstName string         `gorm:"size:100" json:"first_name"`
	LastName  string         `gorm:"size:100" json:"last_name"`
	Email     string         `gorm:"size:255;uniqueIndex" json:"email"`
	Image     string         `json:"image,omitempty"`
	Role      Role           `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName keeps the plural form stable.
func (Staff) TableName() string { return "staff" }

// Summary normalizes the staff account into a UserSummary.
func (s *Staff) Summary() *UserSummary {
	role := s.Role
	if role == "" || role == RoleMember {
		role = RoleStaff
	}
	return &UserSummary{
		ID:        s.ID,
		Handle:    s.Handle,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Image:     s.Image,
		Role:      role,
	}
}

// StaffAssignment maps a central staff account onto a tenant.
type StaffAssignment struct {
	StaffID   uint      `gorm:"primaryKey;autoIncrement:false" json:"staff_id"`
	TenantKey string    `gorm:"primaryKey;size:64" json:"tenant_key"`
	CreatedAt time.Time `json:"created_at"`
}
