package model

import (
	"time"
)

type PostingStatus string

const (
	PostingActive PostingStatus = "ACTIVE"
	PostingClosed PostingStatus = "CLOSED"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

type Posting struct {
	ID                uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	PosterID          uint          `gorm:"index;not null" json:"posterId"`
	Title             string        `gorm:"type:text;not null" json:"title"`
	Body              string        `gorm:"type:text;not null" json:"body"`
	Compensation      int64         `gorm:"not null" json:"compensation"`
	Status            PostingStatus `gorm:"type:varchar(32);not null" json:"status"`
	Tags              string        `gorm:"type:varchar(512)" json:"tags"`
	ApplyDueDate      *time.Time    `json:"applyDueDate"`
	ActivityStartDate *time.Time    `json:"activityStartDate"`
	ActivityEndDate   *time.Time    `json:"activityEndDate"`
	CreatedAt         time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

type Application struct {
	ID               uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	ApplicantID      uint              `gorm:"index;not null" json:"applicantId"`
	PostingID        uint              `gorm:"index;not null" json:"postingId"`
	Status           ApplicationStatus `gorm:"type:varchar(32);not null" json:"status"`
	VerificationFile []byte            `gorm:"type:longblob" json:"-"`
	BillingID        *uint             `gorm:"index" json:"billingId"`
	ChargedDate      *time.Time        `json:"chargedDate"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}
