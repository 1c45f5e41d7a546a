package model

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleCompany UserRole = "COMPANY"
	RoleAdmin   UserRole = "ADMIN"
)

type AuthorizationStatus string

const (
	AuthorizationNone     AuthorizationStatus = "NONE"
	AuthorizationPending  AuthorizationStatus = "PENDING"
	AuthorizationApproved AuthorizationStatus = "APPROVED"
	AuthorizationRejected AuthorizationStatus = "REJECTED"
)

// User covers both student and company accounts; the company-only columns
// (logo, company code/url) stay empty for students.
type User struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Email           string    `gorm:"type:varchar(255);not null;unique" json:"email"`
	Password        string    `gorm:"type:varchar(255);not null" json:"-"`
	Role            UserRole  `gorm:"type:varchar(32);not null" json:"role"`
	IsAuthorized    bool      `json:"isAuthorized"`
	IsDeleted       bool      `json:"isDeleted"`
	PhoneNumber     string    `gorm:"type:varchar(64)" json:"phoneNumber"`
	Description     string    `gorm:"type:text" json:"description"`
	ProfileImage    []byte    `gorm:"type:longblob" json:"-"`
	LogoImage       []byte    `gorm:"type:longblob" json:"-"`
	BackgroundImage []byte    `gorm:"type:longblob" json:"-"`
	CompanyURL      string    `gorm:"type:varchar(512)" json:"companyUrl"`
	CompanyCode     string    `gorm:"type:varchar(64)" json:"companyCode"`
	BankNumber      string    `gorm:"type:varchar(64)" json:"bankNumber"`
	BankName        string    `gorm:"type:varchar(64)" json:"bankName"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// StudentAuthorizationRequest is one verification attempt by a student.
// The newest row per user decides the displayed status.
type StudentAuthorizationRequest struct {
	ID         uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint                `gorm:"index;not null" json:"userId"`
	University string              `gorm:"type:varchar(255)" json:"university"`
	Major      string              `gorm:"type:varchar(255)" json:"major"`
	File       []byte              `gorm:"type:longblob" json:"-"`
	Status     AuthorizationStatus `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt  time.Time           `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time           `gorm:"autoUpdateTime" json:"updatedAt"`
}
