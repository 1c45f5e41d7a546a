package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"campusbridge/model"
	"campusbridge/service"

	"github.com/gin-gonic/gin"
)

// PostingController ...
type PostingController struct {
	Postings *service.PostingService
}

func (ctrl *PostingController) Create(c *gin.Context) {
	var input service.CreatePostingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	detail, err := ctrl.Postings.CreatePosting(currentUserID(c), input)
	if err != nil {
		logger.Warnf("[%s] Failed to create posting: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (ctrl *PostingController) Update(c *gin.Context) {
	postingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input service.CreatePostingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	detail, err := ctrl.Postings.UpdatePosting(postingID, currentUserID(c), input)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrNotPoster) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (ctrl *PostingController) Delete(c *gin.Context) {
	postingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.Postings.DeletePosting(postingID, currentUserID(c)); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrNotPoster) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Posting deleted"})
}

func (ctrl *PostingController) Detail(c *gin.Context) {
	postingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := ctrl.Postings.GetDetail(postingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (ctrl *PostingController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	var posterID *uint
	if raw := c.Query("posterId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid posterId"})
			return
		}
		v := uint(id)
		posterID = &v
	}

	pageResult, err := ctrl.Postings.GetPosterPage(page, size, posterID)
	if err != nil {
		logger.Warnf("[%s] Failed to list postings: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list postings"})
		return
	}
	c.JSON(http.StatusOK, pageResult)
}

func (ctrl *PostingController) Apply(c *gin.Context) {
	postingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.Postings.ApplyToPosting(currentUserID(c), postingID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Applied to posting"})
}

func (ctrl *PostingController) Applications(c *gin.Context) {
	postingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	applications, err := ctrl.Postings.GetApplicationsByPosting(postingID, currentUserID(c))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrNotPoster) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, applications)
}

func (ctrl *PostingController) MyApplications(c *gin.Context) {
	applications, err := ctrl.Postings.GetApplicationsByUser(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, applications)
}

func (ctrl *PostingController) UpdateApplicationStatus(c *gin.Context) {
	applicationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" binding:"required,oneof=PENDING APPROVED REJECTED"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := ctrl.Postings.UpdateApplicationStatus(applicationID, model.ApplicationStatus(input.Status), currentUserID(c)); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrNotPoster) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application status updated"})
}

// UploadVerification stores the applicant's proof-of-activity file for an
// approved application and triggers the company charge.
func (ctrl *PostingController) UploadVerification(c *gin.Context) {
	applicationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	if err := ctrl.Postings.UploadVerificationFile(applicationID, currentUserID(c), data); err != nil {
		logger.Warnf("[%s] Failed to upload verification file: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification file uploaded"})
}

// ImportBody fetches a page and returns it as markdown so the frontend
// can prefill a posting body from an existing job ad.
func (ctrl *PostingController) ImportBody(c *gin.Context) {
	var input struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	body, err := ctrl.Postings.ImportBodyFromURL(input.URL)
	if err != nil {
		logger.Warnf("[%s] Failed to import posting body: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to import posting body"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"body": body})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(raw), true
}
