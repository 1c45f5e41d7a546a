package service

import (
	"encoding/base64"
	"errors"
	"time"

	"campusbridge/model"
	"campusbridge/platform"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var logger = platform.Logger

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type UserService struct {
	DB *gorm.DB
}

// UserResponse is the public view of an account. Image fields carry
// base64; the agent layer strips them before anything reaches the model.
type UserResponse struct {
	ID                         uint                      `json:"id"`
	Name                       string                    `json:"name"`
	Email                      string                    `json:"email"`
	Role                       model.UserRole            `json:"role"`
	IsAuthorized               bool                      `json:"isAuthorized"`
	IsDeleted                  bool                      `json:"isDeleted"`
	StudentAuthorizationStatus model.AuthorizationStatus `json:"studentAuthorizationStatus"`
	University                 string                    `json:"university,omitempty"`
	Major                      string                    `json:"major,omitempty"`
	PhoneNumber                string                    `json:"phoneNumber,omitempty"`
	Description                string                    `json:"description,omitempty"`
	CompanyURL                 string                    `json:"companyUrl,omitempty"`
	CompanyCode                string                    `json:"companyCode,omitempty"`
	BankNumber                 string                    `json:"bankNumber,omitempty"`
	BankName                   string                    `json:"bankName,omitempty"`
	ProfileImage               string                    `json:"profileImage,omitempty"`
	LogoImage                  string                    `json:"logoImage,omitempty"`
	BackgroundImage            string                    `json:"backgroundImage,omitempty"`
}

func (s *UserService) Register(name, email, password string, role model.UserRole) error {
	var count int64
	if err := s.DB.Model(&model.User{}).
		Where("email = ? AND is_deleted = ?", email, false).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("internal server error")
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		Password:     string(hashedPassword),
		Role:         role,
		IsAuthorized: false,
	}
	return s.DB.Create(user).Error
}

// Login checks the credentials against the stored hash and issues a token.
// The requested role must match the account's role.
func (s *UserService) Login(email, password string, role model.UserRole) (string, error) {
	var user model.User
	if err := s.DB.Where("email = ? AND is_deleted = ?", email, false).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}
	if user.Role != role {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	ts := &TokenService{}
	token, err := ts.CreateToken(user.ID, string(user.Role))
	if err != nil {
		logger.Warnf("failed to generate token for user %d: %v", user.ID, err)
		return "", errors.New("failed to generate token")
	}
	return token.AccessToken, nil
}

func (s *UserService) GetUserByID(id uint) (*UserResponse, error) {
	var user model.User
	if err := s.DB.First(&user, id).Error; err != nil {
		return nil, ErrUserNotFound
	}

	resp := &UserResponse{
		ID:                         user.ID,
		Name:                       user.Name,
		Email:                      user.Email,
		Role:                       user.Role,
		IsAuthorized:               user.IsAuthorized,
		IsDeleted:                  user.IsDeleted,
		StudentAuthorizationStatus: model.AuthorizationNone,
		PhoneNumber:                user.PhoneNumber,
		Description:                user.Description,
		CompanyURL:                 user.CompanyURL,
		CompanyCode:                user.CompanyCode,
		BankNumber:                 user.BankNumber,
		BankName:                   user.BankName,
		ProfileImage:               encodeImage(user.ProfileImage),
		LogoImage:                  encodeImage(user.LogoImage),
		BackgroundImage:            encodeImage(user.BackgroundImage),
	}

	if user.Role == model.RoleStudent {
		if req := s.latestAuthorizationRequest(user.ID); req != nil {
			resp.StudentAuthorizationStatus = req.Status
			resp.University = req.University
			resp.Major = req.Major
		}
	}
	return resp, nil
}

func (s *UserService) UpdateUserProfile(userID uint, name, phoneNumber, description, bankNumber, bankName string, profileImage []byte) error {
	var user model.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}

	user.Name = name
	user.PhoneNumber = phoneNumber
	user.Description = description
	user.BankNumber = bankNumber
	user.BankName = bankName
	if profileImage != nil {
		user.ProfileImage = profileImage
	}
	return s.DB.Save(&user).Error
}

func (s *UserService) UpdateCompanyProfile(userID uint, name, companyCode, companyURL, description, bankNumber, bankName string, logoImage, backgroundImage []byte) error {
	var user model.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}

	user.Name = name
	user.CompanyCode = companyCode
	user.CompanyURL = companyURL
	user.Description = description
	user.BankNumber = bankNumber
	user.BankName = bankName
	if logoImage != nil {
		user.LogoImage = logoImage
	}
	if backgroundImage != nil {
		user.BackgroundImage = backgroundImage
	}
	return s.DB.Save(&user).Error
}

func (s *UserService) RequestStudentAuthorization(userID uint, university, major string, file []byte) error {
	var user model.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}
	if user.Role != model.RoleStudent {
		return errors.New("only students can request authorization")
	}
	if user.IsAuthorized {
		return errors.New("user is already authorized")
	}

	var requests []model.StudentAuthorizationRequest
	if err := s.DB.Where("user_id = ?", userID).Find(&requests).Error; err != nil {
		return err
	}
	for _, r := range requests {
		if r.Status == model.AuthorizationPending {
			return errors.New("there is already a pending authorization request for this user")
		}
		if r.Status == model.AuthorizationApproved {
			return errors.New("this user is already approved")
		}
	}

	req := &model.StudentAuthorizationRequest{
		UserID:     userID,
		University: university,
		Major:      major,
		File:       file,
		Status:     model.AuthorizationPending,
	}
	return s.DB.Create(req).Error
}

// ReviewStudentAuthorization approves or rejects the latest pending
// request and flips the user's authorized flag on approval.
func (s *UserService) ReviewStudentAuthorization(userID uint, approve bool) error {
	var user model.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return ErrUserNotFound
	}
	if user.Role != model.RoleStudent {
		return errors.New("only students can have authorization requests")
	}

	var req model.StudentAuthorizationRequest
	if err := s.DB.Where("user_id = ? AND status = ?", userID, model.AuthorizationPending).
		Order("created_at DESC").First(&req).Error; err != nil {
		return errors.New("no pending authorization request found")
	}

	if approve {
		req.Status = model.AuthorizationApproved
	} else {
		req.Status = model.AuthorizationRejected
	}
	req.UpdatedAt = time.Now()
	if err := s.DB.Save(&req).Error; err != nil {
		return err
	}

	if approve {
		user.IsAuthorized = true
		return s.DB.Save(&user).Error
	}
	return nil
}

func (s *UserService) latestAuthorizationRequest(userID uint) *model.StudentAuthorizationRequest {
	var req model.StudentAuthorizationRequest
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").First(&req).Error; err != nil {
		return nil
	}
	return &req
}

func encodeImage(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}
