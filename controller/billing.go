package controller

import (
	"errors"
	"net/http"

	"campusbridge/service"

	"github.com/gin-gonic/gin"
)

// BillingController ...
type BillingController struct {
	Billings *service.BillingService
}

func (ctrl *BillingController) List(c *gin.Context) {
	billings, err := ctrl.Billings.GetAllBillingsByCompany(currentUserID(c))
	if err != nil {
		logger.Warnf("[%s] Failed to list billings: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list billings"})
		return
	}
	c.JSON(http.StatusOK, billings)
}

func (ctrl *BillingController) Detail(c *gin.Context) {
	billingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := ctrl.Billings.GetBillingDetail(billingID, currentUserID(c))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, service.ErrNotBillingOwner) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}
