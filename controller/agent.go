package controller

import (
	"errors"
	"net/http"

	"campusbridge/service"

	"github.com/gin-gonic/gin"
)

// AgentController ...
type AgentController struct {
	Agent *service.AgentService
}

// Chat forwards one user message into the agent loop. With a sessionId the
// conversation continues, without one a new session is created.
func (ctrl *AgentController) Chat(c *gin.Context) {
	logger.Infof("[%s] Handling agent chat request", c.GetString("requestId"))

	var input struct {
		Message   string `json:"message" binding:"required"`
		SessionID *uint  `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := ctrl.Agent.Chat(c.Request.Context(), currentUserID(c), input.Message, input.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		logger.Warnf("[%s] Agent chat failed: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent chat failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (ctrl *AgentController) Sessions(c *gin.Context) {
	sessions, err := ctrl.Agent.GetSessions(currentUserID(c))
	if err != nil {
		logger.Warnf("[%s] Failed to list sessions: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (ctrl *AgentController) SessionMessages(c *gin.Context) {
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}

	messages, err := ctrl.Agent.GetSessionMessages(currentUserID(c), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}
