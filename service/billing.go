package service

import (
	"errors"
	"time"

	"campusbridge/model"

	"gorm.io/gorm"
)

var (
	ErrBillingNotFound = errors.New("billing not found")
	ErrNotBillingOwner = errors.New("user is not the owner of this billing")
)

type BillingService struct {
	DB *gorm.DB
}

type BillingResponse struct {
	ID          uint                `json:"id"`
	CompanyID   uint                `json:"companyId"`
	StartedAt   time.Time           `json:"startedAt"`
	EndedAt     time.Time           `json:"endedAt"`
	TotalAmount int64               `json:"totalAmount"`
	Status      model.BillingStatus `json:"status"`
}

type BillingDetailItem struct {
	PostingID    uint      `json:"postingId"`
	PostingTitle string    `json:"postingTitle"`
	StudentID    uint      `json:"studentId"`
	StudentName  string    `json:"studentName"`
	ChargedDate  time.Time `json:"chargedDate"`
}

type BillingDetail struct {
	ID          uint                `json:"id"`
	CompanyID   uint                `json:"companyId"`
	StartedAt   time.Time           `json:"startedAt"`
	EndedAt     time.Time           `json:"endedAt"`
	TotalAmount int64               `json:"totalAmount"`
	Status      model.BillingStatus `json:"status"`
	Items       []BillingDetailItem `json:"items"`
}

func (s *BillingService) GetAllBillingsByCompany(companyID uint) ([]BillingResponse, error) {
	var billings []model.Billing
	if err := s.DB.Where("company_id = ?", companyID).
		Order("started_at DESC").Find(&billings).Error; err != nil {
		return nil, err
	}

	out := make([]BillingResponse, 0, len(billings))
	for _, b := range billings {
		out = append(out, BillingResponse{
			ID:          b.ID,
			CompanyID:   b.CompanyID,
			StartedAt:   b.StartedAt,
			EndedAt:     b.EndedAt,
			TotalAmount: b.TotalAmount,
			Status:      b.Status,
		})
	}
	return out, nil
}

// GetBillingDetail returns the billing with its per-application charge
// breakdown. Only the billed company may read it.
func (s *BillingService) GetBillingDetail(billingID, companyID uint) (*BillingDetail, error) {
	var billing model.Billing
	if err := s.DB.First(&billing, billingID).Error; err != nil {
		return nil, ErrBillingNotFound
	}
	if billing.CompanyID != companyID {
		return nil, ErrNotBillingOwner
	}

	var applications []model.Application
	if err := s.DB.Where("billing_id = ?", billingID).Find(&applications).Error; err != nil {
		return nil, err
	}

	items := make([]BillingDetailItem, 0, len(applications))
	for _, a := range applications {
		if a.ChargedDate == nil {
			continue
		}
		var posting model.Posting
		if err := s.DB.First(&posting, a.PostingID).Error; err != nil {
			continue
		}
		var applicant model.User
		if err := s.DB.First(&applicant, a.ApplicantID).Error; err != nil {
			continue
		}
		items = append(items, BillingDetailItem{
			PostingID:    posting.ID,
			PostingTitle: posting.Title,
			StudentID:    applicant.ID,
			StudentName:  applicant.Name,
			ChargedDate:  *a.ChargedDate,
		})
	}

	return &BillingDetail{
		ID:          billing.ID,
		CompanyID:   billing.CompanyID,
		StartedAt:   billing.StartedAt,
		EndedAt:     billing.EndedAt,
		TotalAmount: billing.TotalAmount,
		Status:      billing.Status,
		Items:       items,
	}, nil
}
