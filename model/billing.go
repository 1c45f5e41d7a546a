package model

import (
	"time"
)

type BillingStatus string

const (
	BillingPending   BillingStatus = "PENDING"
	BillingPaid      BillingStatus = "PAID"
	BillingCancelled BillingStatus = "CANCELLED"
	BillingOverdue   BillingStatus = "OVERDUE"
)

// Billing is one month of charges for a company. A row is created lazily
// by the first charged application of the month and accumulates after that.
type Billing struct {
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID   uint          `gorm:"index;not null" json:"companyId"`
	StartedAt   time.Time     `gorm:"not null" json:"startedAt"`
	EndedAt     time.Time     `gorm:"not null" json:"endedAt"`
	TotalAmount int64         `gorm:"not null" json:"totalAmount"`
	Status      BillingStatus `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}
