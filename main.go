package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"campusbridge/controller"
	"campusbridge/model"
	"campusbridge/platform"
	"campusbridge/service"

	_uuid "github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CORSMiddleware ...
// CORS (Cross-Origin Resource Sharing)
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Origin, Authorization, Accept, Client-Security-Token, Accept-Encoding, x-access-token")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
		} else {
			c.Next()
		}
	}
}

// RequestIDMiddleware ...
// Generate a unique ID and attach it to each request for future reference or use
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := _uuid.New()
		c.Writer.Header().Set("X-Request-Id", uuid.String())
		c.Set("requestId", uuid.String())
		c.Next()
	}
}

func LogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)

		status := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		userAgent := c.Request.UserAgent()
		requestId := c.GetString("requestId")

		logrus.Infof(
			" [%s] %d | %v | %s | %s | %s | %s ",
			requestId,
			status,
			latency,
			clientIP,
			method,
			path,
			userAgent,
		)
	}
}

var auth = new(controller.AuthController)

// TokenAuthMiddleware ...
// JWT Authentication middleware attached to each request that needs to be authenitcated to
// validate the access_token in the header
func TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.TokenValid(c)
		c.Next()
	}
}

func toolTurnTTL() time.Duration {
	days := 30
	if raw := os.Getenv("AGENT_TOOL_TURN_TTL_DAYS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			days = v
		}
	}
	return time.Duration(days) * 24 * time.Hour
}

func main() {
	fmt.Println("Server started...")

	//Load the .env file
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("failed to load the env file")
	}

	platform.InitFile("./log", "gin")

	r := gin.Default()
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware())

	//init database
	platform.InitDB()
	model.InstallDB()

	platform.InitLLMClient()

	userService := &service.UserService{DB: platform.DB}
	postingService := &service.PostingService{DB: platform.DB, Email: &service.EmailService{}}
	billingService := &service.BillingService{DB: platform.DB}
	agentService := &service.AgentService{
		DB:        platform.DB,
		Completer: &service.OpenAIService{DB: platform.DB, Client: platform.LLMClient},
		Executor:  service.NewAgentFunctionExecutor(userService, postingService, billingService),
	}

	user := &controller.UserController{Users: userService}
	posting := &controller.PostingController{Postings: postingService}
	billing := &controller.BillingController{Billings: billingService}
	agent := &controller.AgentController{Agent: agentService}

	v1 := r.Group("/v1")
	{
		v1.POST("/user/register", user.Register)
		v1.POST("/user/login", user.Login)

		//Refresh the token
		v1.POST("/token/refresh", auth.Refresh)

		v1.GET("/user/me", TokenAuthMiddleware(), user.Me)
		v1.PUT("/user/profile", TokenAuthMiddleware(), user.UpdateProfile)
		v1.PUT("/user/company-profile", TokenAuthMiddleware(), user.UpdateCompanyProfile)
		v1.POST("/user/authorization", TokenAuthMiddleware(), user.RequestStudentAuthorization)
		v1.PUT("/user/authorization/:userId/review", TokenAuthMiddleware(), user.ReviewStudentAuthorization)

		v1.GET("/postings", posting.List)
		v1.GET("/postings/:id", posting.Detail)
		v1.POST("/postings", TokenAuthMiddleware(), posting.Create)
		v1.PUT("/postings/:id", TokenAuthMiddleware(), posting.Update)
		v1.DELETE("/postings/:id", TokenAuthMiddleware(), posting.Delete)
		v1.POST("/postings/import", TokenAuthMiddleware(), posting.ImportBody)
		v1.POST("/postings/:id/apply", TokenAuthMiddleware(), posting.Apply)
		v1.GET("/postings/:id/applications", TokenAuthMiddleware(), posting.Applications)
		v1.GET("/applications/my", TokenAuthMiddleware(), posting.MyApplications)
		v1.PUT("/applications/:id/status", TokenAuthMiddleware(), posting.UpdateApplicationStatus)
		v1.POST("/applications/:id/verification", TokenAuthMiddleware(), posting.UploadVerification)

		v1.GET("/billings", TokenAuthMiddleware(), billing.List)
		v1.GET("/billings/:id", TokenAuthMiddleware(), billing.Detail)

		// AI agent
		v1.POST("/agent/chat", TokenAuthMiddleware(), agent.Chat)
		v1.GET("/agent/sessions", TokenAuthMiddleware(), agent.Sessions)
		v1.GET("/agent/sessions/:sessionId", TokenAuthMiddleware(), agent.SessionMessages)
	}

	c := cron.New()
	c.AddFunc("30 3 * * *", func() {
		ttl := toolTurnTTL()
		purged, err := agentService.PurgeOldToolTurns(ttl)
		if err != nil {
			logrus.Warnf("tool turn purge failed: %v", err)
			return
		}
		logrus.Infof("purged %d tool turns older than %v", purged, ttl)
	})
	c.Start()

	port := os.Getenv("PORT")
	r.Run(":" + port)
}
