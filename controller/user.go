package controller

import (
	"encoding/base64"
	"net/http"

	"campusbridge/model"
	"campusbridge/service"

	"github.com/gin-gonic/gin"
)

// UserController ...
type UserController struct {
	Users *service.UserService
}

func (ctrl *UserController) Register(c *gin.Context) {
	logger.Infof("[%s] Handling user registration request", c.GetString("requestId"))

	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required,oneof=STUDENT COMPANY"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := ctrl.Users.Register(input.Name, input.Email, input.Password, model.UserRole(input.Role)); err != nil {
		logger.Warnf("[%s] Failed to register user %s: %s", c.GetString("requestId"), input.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	logger.Infof("[%s] User %s registered successfully", c.GetString("requestId"), input.Email)
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (ctrl *UserController) Login(c *gin.Context) {
	logger.Infof("[%s] Handling user login request", c.GetString("requestId"))

	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required,oneof=STUDENT COMPANY ADMIN"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	token, err := ctrl.Users.Login(input.Email, input.Password, model.UserRole(input.Role))
	if err != nil {
		logger.Warnf("[%s] User %s failed to login: %s", c.GetString("requestId"), input.Email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	logger.Infof("[%s] User %s login successfully", c.GetString("requestId"), input.Email)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (ctrl *UserController) Me(c *gin.Context) {
	user, err := ctrl.Users.GetUserByID(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctrl *UserController) UpdateProfile(c *gin.Context) {
	var input struct {
		Name         string `json:"name" binding:"required"`
		PhoneNumber  string `json:"phoneNumber"`
		Description  string `json:"description"`
		BankNumber   string `json:"bankNumber"`
		BankName     string `json:"bankName"`
		ProfileImage string `json:"profileImage"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	profileImage, ok := decodeImageField(c, input.ProfileImage)
	if !ok {
		return
	}

	if err := ctrl.Users.UpdateUserProfile(currentUserID(c), input.Name, input.PhoneNumber, input.Description, input.BankNumber, input.BankName, profileImage); err != nil {
		logger.Warnf("[%s] Failed to update profile: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

func (ctrl *UserController) UpdateCompanyProfile(c *gin.Context) {
	var input struct {
		Name            string `json:"name" binding:"required"`
		CompanyCode     string `json:"companyCode"`
		CompanyURL      string `json:"companyUrl"`
		Description     string `json:"description"`
		BankNumber      string `json:"bankNumber"`
		BankName        string `json:"bankName"`
		LogoImage       string `json:"logoImage"`
		BackgroundImage string `json:"backgroundImage"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	logoImage, ok := decodeImageField(c, input.LogoImage)
	if !ok {
		return
	}
	backgroundImage, ok := decodeImageField(c, input.BackgroundImage)
	if !ok {
		return
	}

	if err := ctrl.Users.UpdateCompanyProfile(currentUserID(c), input.Name, input.CompanyCode, input.CompanyURL, input.Description, input.BankNumber, input.BankName, logoImage, backgroundImage); err != nil {
		logger.Warnf("[%s] Failed to update company profile: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update company profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Company profile updated"})
}

func (ctrl *UserController) RequestStudentAuthorization(c *gin.Context) {
	var input struct {
		University string `json:"university" binding:"required"`
		Major      string `json:"major" binding:"required"`
		File       string `json:"file"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	file, ok := decodeImageField(c, input.File)
	if !ok {
		return
	}

	if err := ctrl.Users.RequestStudentAuthorization(currentUserID(c), input.University, input.Major, file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Authorization requested"})
}

// ReviewStudentAuthorization approves or rejects a pending student
// authorization request. Admin only.
func (ctrl *UserController) ReviewStudentAuthorization(c *gin.Context) {
	if c.GetString("UserRole") != string(model.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin only"})
		return
	}

	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var input struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := ctrl.Users.ReviewStudentAuthorization(userID, *input.Approve); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Authorization reviewed"})
}

// decodeImageField turns an optional base64 body field into raw bytes. An
// empty field means "leave unchanged" and decodes to nil.
func decodeImageField(c *gin.Context, encoded string) ([]byte, bool) {
	if encoded == "" {
		return nil, true
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid base64 data"})
		return nil, false
	}
	return data, true
}
