package model

import "time"

type UserRole string

const (
	Student UserRole = "student"
	Staff   UserRole = "staff"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;not null;default:'student'" json:"role"`
	GroupID   *uint     `gorm:"index" json:"groupId,omitempty"`
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// Group 学员分组（管理用，无业务不变量）
type Group struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Group) TableName() string {
	return "groups"
}
