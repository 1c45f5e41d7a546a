package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campusbridge/model"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"gorm.io/gorm"
)

var (
	ErrPostingNotFound     = errors.New("posting not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrNotPoster           = errors.New("user is not the poster of this posting")
)

// applicationCharge is what a company pays per approved-and-verified
// application, accrued into the month's billing row.
const applicationCharge = int64(10000)

type PostingService struct {
	DB    *gorm.DB
	Email *EmailService
}

type CreatePostingRequest struct {
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	Compensation      int64      `json:"compensation"`
	Tags              []string   `json:"tags"`
	ApplyDueDate      *time.Time `json:"applyDueDate"`
	ActivityStartDate *time.Time `json:"activityStartDate"`
	ActivityEndDate   *time.Time `json:"activityEndDate"`
}

type PostingDetail struct {
	ID                uint                `json:"id"`
	Title             string              `json:"title"`
	Body              string              `json:"body"`
	BodyHTML          string              `json:"bodyHtml,omitempty"`
	PosterID          uint                `json:"posterId"`
	PosterName        string              `json:"posterName"`
	PosterEmail       string              `json:"posterEmail"`
	LogoImage         string              `json:"logoImage,omitempty"`
	Compensation      int64               `json:"compensation"`
	Status            model.PostingStatus `json:"status"`
	Tags              []string            `json:"tags"`
	ApplyDueDate      *time.Time          `json:"applyDueDate"`
	ActivityStartDate *time.Time          `json:"activityStartDate"`
	ActivityEndDate   *time.Time          `json:"activityEndDate"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

type PostingPage struct {
	Content       []PostingDetail `json:"content"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
	TotalElements int64           `json:"totalElements"`
}

// ApplicationSummary is the poster-facing view of one application.
type ApplicationSummary struct {
	ID                           uint                      `json:"id"`
	PostingID                    uint                      `json:"postingId"`
	ApplicantID                  uint                      `json:"applicantId"`
	ApplicantName                string                    `json:"applicantName"`
	ApplicantEmail               string                    `json:"applicantEmail"`
	ApplicantPhoneNumber         string                    `json:"applicantPhoneNumber,omitempty"`
	ApplicantDescription         string                    `json:"applicantDescription,omitempty"`
	ApplicantUniversity          string                    `json:"applicantUniversity,omitempty"`
	ApplicantMajor               string                    `json:"applicantMajor,omitempty"`
	ApplicantAuthorizationStatus model.AuthorizationStatus `json:"applicantAuthorizationStatus"`
	ApplicantProfileImage        string                    `json:"applicantProfileImage,omitempty"`
	VerificationFile             string                    `json:"verificationFile,omitempty"`
	Status                       model.ApplicationStatus   `json:"status"`
	CreatedAt                    time.Time                 `json:"createdAt"`
}

// ApplicationDetail is the applicant-facing view of one application.
type ApplicationDetail struct {
	ID               uint                    `json:"id"`
	PostingID        uint                    `json:"postingId"`
	PostingTitle     string                  `json:"postingTitle"`
	PostingTags      []string                `json:"postingTags"`
	PosterName       string                  `json:"posterName"`
	ApplicantID      uint                    `json:"applicantId"`
	ApplicantName    string                  `json:"applicantName"`
	ApplicantEmail   string                  `json:"applicantEmail"`
	Status           model.ApplicationStatus `json:"status"`
	VerificationFile string                  `json:"verificationFile,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
}

func (s *PostingService) CreatePosting(posterID uint, req CreatePostingRequest) (*PostingDetail, error) {
	var poster model.User
	if err := s.DB.First(&poster, posterID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if poster.Role != model.RoleCompany {
		return nil, errors.New("only companies can create postings")
	}

	posting := model.Posting{
		PosterID:          posterID,
		Title:             req.Title,
		Body:              req.Body,
		Compensation:      req.Compensation,
		Tags:              joinTags(req.Tags),
		Status:            model.PostingActive,
		ApplyDueDate:      req.ApplyDueDate,
		ActivityStartDate: req.ActivityStartDate,
		ActivityEndDate:   req.ActivityEndDate,
	}
	if err := s.DB.Create(&posting).Error; err != nil {
		return nil, err
	}
	return s.toDetail(&posting, &poster), nil
}

func (s *PostingService) UpdatePosting(postingID, posterID uint, req CreatePostingRequest) (*PostingDetail, error) {
	var posting model.Posting
	if err := s.DB.First(&posting, postingID).Error; err != nil {
		return nil, ErrPostingNotFound
	}
	if posting.PosterID != posterID {
		return nil, ErrNotPoster
	}

	posting.Title = req.Title
	posting.Body = req.Body
	posting.Compensation = req.Compensation
	posting.Tags = joinTags(req.Tags)
	posting.ApplyDueDate = req.ApplyDueDate
	posting.ActivityStartDate = req.ActivityStartDate
	posting.ActivityEndDate = req.ActivityEndDate
	if err := s.DB.Save(&posting).Error; err != nil {
		return nil, err
	}

	var poster model.User
	if err := s.DB.First(&poster, posting.PosterID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return s.toDetail(&posting, &poster), nil
}

func (s *PostingService) DeletePosting(postingID, posterID uint) error {
	var posting model.Posting
	if err := s.DB.First(&posting, postingID).Error; err != nil {
		return ErrPostingNotFound
	}
	if posting.PosterID != posterID {
		return ErrNotPoster
	}
	return s.DB.Delete(&posting).Error
}

func (s *PostingService) GetDetail(postingID uint) (*PostingDetail, error) {
	var posting model.Posting
	if err := s.DB.First(&posting, postingID).Error; err != nil {
		return nil, ErrPostingNotFound
	}
	var poster model.User
	if err := s.DB.First(&poster, posting.PosterID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return s.toDetail(&posting, &poster), nil
}

// GetPosterPage returns one page of postings, newest first, restricted to
// posterID when given.
func (s *PostingService) GetPosterPage(page, size int, posterID *uint) (*PostingPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}

	query := s.DB.Model(&model.Posting{})
	if posterID != nil {
		query = query.Where("poster_id = ?", *posterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var postings []model.Posting
	if err := query.Order("created_at DESC").
		Offset(page * size).Limit(size).
		Find(&postings).Error; err != nil {
		return nil, err
	}

	posterIDs := make([]uint, 0, len(postings))
	for _, p := range postings {
		posterIDs = append(posterIDs, p.PosterID)
	}
	posters := s.usersByID(posterIDs)

	details := make([]PostingDetail, 0, len(postings))
	for i := range postings {
		poster := posters[postings[i].PosterID]
		if poster == nil {
			continue
		}
		details = append(details, *s.toDetail(&postings[i], poster))
	}

	return &PostingPage{
		Content:       details,
		Page:          page,
		Size:          size,
		TotalElements: total,
	}, nil
}

func (s *PostingService) ApplyToPosting(userID, postingID uint) error {
	var posting model.Posting
	if err := s.DB.First(&posting, postingID).Error; err != nil {
		return ErrPostingNotFound
	}
	var applicant model.User
	if err := s.DB.First(&applicant, userID).Error; err != nil {
		return ErrUserNotFound
	}
	if applicant.Role != model.RoleStudent {
		return errors.New("only students can apply to postings")
	}
	if posting.Status != model.PostingActive {
		return fmt.Errorf("posting %d is not active", postingID)
	}

	var count int64
	if err := s.DB.Model(&model.Application{}).
		Where("posting_id = ? AND applicant_id = ?", postingID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("already applied to this posting")
	}

	application := model.Application{
		ApplicantID: userID,
		PostingID:   postingID,
		Status:      model.ApplicationPending,
	}
	return s.DB.Create(&application).Error
}

// GetApplicationsByPosting lists applications for one posting. Only the
// posting's owner may call it.
func (s *PostingService) GetApplicationsByPosting(postingID, userID uint) ([]ApplicationSummary, error) {
	var posting model.Posting
	if err := s.DB.First(&posting, postingID).Error; err != nil {
		return nil, ErrPostingNotFound
	}
	if posting.PosterID != userID {
		return nil, ErrNotPoster
	}

	var applications []model.Application
	if err := s.DB.Where("posting_id = ?", postingID).
		Order("created_at ASC").Find(&applications).Error; err != nil {
		return nil, err
	}

	applicantIDs := make([]uint, 0, len(applications))
	for _, a := range applications {
		applicantIDs = append(applicantIDs, a.ApplicantID)
	}
	applicants := s.usersByID(applicantIDs)

	summaries := make([]ApplicationSummary, 0, len(applications))
	for _, a := range applications {
		applicant := applicants[a.ApplicantID]
		if applicant == nil {
			continue
		}
		summary := ApplicationSummary{
			ID:                           a.ID,
			PostingID:                    a.PostingID,
			ApplicantID:                  applicant.ID,
			ApplicantName:                applicant.Name,
			ApplicantEmail:               applicant.Email,
			ApplicantPhoneNumber:         applicant.PhoneNumber,
			ApplicantDescription:         applicant.Description,
			ApplicantAuthorizationStatus: model.AuthorizationNone,
			ApplicantProfileImage:        encodeImage(applicant.ProfileImage),
			VerificationFile:             encodeImage(a.VerificationFile),
			Status:                       a.Status,
			CreatedAt:                    a.CreatedAt,
		}
		var authReq model.StudentAuthorizationRequest
		if err := s.DB.Where("user_id = ?", applicant.ID).
			Order("created_at DESC").First(&authReq).Error; err == nil {
			summary.ApplicantAuthorizationStatus = authReq.Status
			summary.ApplicantUniversity = authReq.University
			summary.ApplicantMajor = authReq.Major
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *PostingService) GetApplicationsByUser(userID uint) ([]ApplicationDetail, error) {
	var user model.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	var applications []model.Application
	if err := s.DB.Where("applicant_id = ?", userID).
		Order("created_at ASC").Find(&applications).Error; err != nil {
		return nil, err
	}

	details := make([]ApplicationDetail, 0, len(applications))
	for _, a := range applications {
		var posting model.Posting
		if err := s.DB.First(&posting, a.PostingID).Error; err != nil {
			continue
		}
		posterName := "Unknown"
		var poster model.User
		if err := s.DB.First(&poster, posting.PosterID).Error; err == nil {
			posterName = poster.Name
		}
		details = append(details, ApplicationDetail{
			ID:               a.ID,
			PostingID:        posting.ID,
			PostingTitle:     posting.Title,
			PostingTags:      splitTags(posting.Tags),
			PosterName:       posterName,
			ApplicantID:      user.ID,
			ApplicantName:    user.Name,
			ApplicantEmail:   user.Email,
			Status:           a.Status,
			VerificationFile: encodeImage(a.VerificationFile),
			CreatedAt:        a.CreatedAt,
		})
	}
	return details, nil
}

// UpdateApplicationStatus lets the posting owner approve or reject an
// application. The applicant is notified by mail; a mail failure does not
// fail the update.
func (s *PostingService) UpdateApplicationStatus(applicationID uint, newStatus model.ApplicationStatus, userID uint) error {
	var application model.Application
	if err := s.DB.First(&application, applicationID).Error; err != nil {
		return ErrApplicationNotFound
	}
	var posting model.Posting
	if err := s.DB.First(&posting, application.PostingID).Error; err != nil {
		return ErrPostingNotFound
	}
	if posting.PosterID != userID {
		return ErrNotPoster
	}

	application.Status = newStatus
	if err := s.DB.Save(&application).Error; err != nil {
		return err
	}

	if s.Email != nil {
		var applicant model.User
		if err := s.DB.First(&applicant, application.ApplicantID).Error; err == nil {
			subject := fmt.Sprintf("[캠퍼스 브릿지] 지원 상태 변경: %s", posting.Title)
			body := fmt.Sprintf("'%s' 공고에 대한 지원 상태가 %s(으)로 변경되었습니다.", posting.Title, newStatus)
			if err := s.Email.SendSimple(applicant.Email, subject, body); err != nil {
				logger.Warnf("failed to send status mail to %s: %v", applicant.Email, err)
			}
		}
	}
	return nil
}

// UploadVerificationFile stores the approved applicant's proof of activity
// and charges the posting company on the current month's billing.
func (s *PostingService) UploadVerificationFile(applicationID, userID uint, file []byte) error {
	var application model.Application
	if err := s.DB.First(&application, applicationID).Error; err != nil {
		return ErrApplicationNotFound
	}
	if application.ApplicantID != userID {
		return errors.New("user is not the applicant of this application")
	}
	if application.Status != model.ApplicationApproved {
		return errors.New("only approved applications can upload verification files")
	}

	application.VerificationFile = file
	if err := s.DB.Save(&application).Error; err != nil {
		return err
	}

	if application.BillingID != nil {
		return nil // already charged
	}

	var posting model.Posting
	if err := s.DB.First(&posting, application.PostingID).Error; err != nil {
		return ErrPostingNotFound
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	var billing model.Billing
	err := s.DB.Where("company_id = ? AND started_at = ? AND ended_at = ?",
		posting.PosterID, monthStart, monthEnd).First(&billing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		billing = model.Billing{
			CompanyID:   posting.PosterID,
			StartedAt:   monthStart,
			EndedAt:     monthEnd,
			TotalAmount: applicationCharge,
			Status:      model.BillingPending,
		}
		if err := s.DB.Create(&billing).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		billing.TotalAmount += applicationCharge
		if err := s.DB.Save(&billing).Error; err != nil {
			return err
		}
	}

	chargedAt := time.Now()
	application.BillingID = &billing.ID
	application.ChargedDate = &chargedAt
	return s.DB.Save(&application).Error
}

// ImportBodyFromURL fetches a web page and converts it to markdown so a
// company can draft a posting body from an existing job ad.
func (s *PostingService) ImportBodyFromURL(url string) (string, error) {
	res, err := http.Get(url)
	if err != nil {
		logger.Warnf("request %s error, %s", url, err)
		return "", err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		logger.Warnf("read body error, %s", err)
		return "", err
	}

	content, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		logger.Warnf("transfer body error, %s", err)
		return "", err
	}
	return content, nil
}

func (s *PostingService) toDetail(posting *model.Posting, poster *model.User) *PostingDetail {
	return &PostingDetail{
		ID:                posting.ID,
		Title:             posting.Title,
		Body:              posting.Body,
		BodyHTML:          renderMarkdown(posting.Body),
		PosterID:          poster.ID,
		PosterName:        poster.Name,
		PosterEmail:       poster.Email,
		LogoImage:         encodeImage(poster.LogoImage),
		Compensation:      posting.Compensation,
		Status:            posting.Status,
		Tags:              splitTags(posting.Tags),
		ApplyDueDate:      posting.ApplyDueDate,
		ActivityStartDate: posting.ActivityStartDate,
		ActivityEndDate:   posting.ActivityEndDate,
		CreatedAt:         posting.CreatedAt,
		UpdatedAt:         posting.UpdatedAt,
	}
}

func (s *PostingService) usersByID(ids []uint) map[uint]*model.User {
	out := make(map[uint]*model.User, len(ids))
	if len(ids) == 0 {
		return out
	}
	var users []model.User
	if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return out
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out
}

func joinTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ",")
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func renderMarkdown(body string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return ""
	}
	return buf.String()
}
