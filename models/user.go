package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"      // Quản trị hệ thống
	RoleSupervisor UserRole = "supervisor" // Giảng viên hướng dẫn (duyệt luận văn)
	RoleUser       UserRole = "user"       // Sinh viên (người nộp)
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:150;not null" json:"username"`
	Email     string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:text" json:"-"` // rỗng với tài khoản đăng nhập Google
	Role      UserRole  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Quan hệ
	Theses []Thesis `json:"theses,omitempty"`
}

// BeforeCreate sinh UUID phía app để chạy được cả trên Postgres lẫn SQLite (test)
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
