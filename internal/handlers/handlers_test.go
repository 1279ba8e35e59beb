package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"careersync/internal/auth"
	"careersync/internal/database"
	"careersync/internal/services"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	auth.InitJWT("test-secret")

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateAll(db))

	referralService := services.NewReferralService(db)
	authService := services.NewAuthService(db, referralService)
	rateLimitService := services.NewRateLimitService(db, 60*time.Second)
	analysisService := services.NewAnalysisService(db, 7*24*time.Hour)
	sessionService := services.NewSessionService(db, referralService)
	billingService, err := services.NewBillingService(db, referralService, "12.00")
	require.NoError(t, err)

	authHandler := NewAuthHandler(authService, referralService)
	analysisHandler := NewAnalysisHandler(analysisService, referralService, rateLimitService, nil)
	referralHandler := NewReferralHandler(referralService)
	sessionHandler := NewSessionHandler(sessionService)
	billingHandler := NewBillingHandler(billingService)

	router := gin.New()
	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.GET("/api/referrals/validate", referralHandler.ValidateCode)
	router.POST("/api/billing/webhook", billingHandler.Webhook)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	api.POST("/analyses", analysisHandler.CreateAnalysis)
	api.GET("/analyses", analysisHandler.ListAnalyses)
	api.GET("/referrals/stats", referralHandler.GetReferralStats)
	api.GET("/referrals/code", referralHandler.GetReferralCode)
	api.POST("/sessions/ping", sessionHandler.Ping)
	api.GET("/billing/pro-status", billingHandler.GetProStatus)
	api.GET("/billing/quote", billingHandler.GetQuote)

	return &testEnv{db: db, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token, remoteAddr string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerUser(t *testing.T, email string) string {
	w := e.do(t, http.MethodPost, "/auth/register", "", "10.0.0.1:1234", gin.H{
		"email":    email,
		"name":     "Test",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := setupTestEnv(t)

	token := env.registerUser(t, "a@example.com")
	assert.NotEmpty(t, token)

	w := env.do(t, http.MethodPost, "/auth/login", "", "", gin.H{
		"email":    "a@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", "", "", gin.H{
		"email":    "a@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterWithReferralCode(t *testing.T) {
	env := setupTestEnv(t)

	referrerToken := env.registerUser(t, "referrer@example.com")

	w := env.do(t, http.MethodGet, "/api/referrals/code", referrerToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var codeResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &codeResp))

	w = env.do(t, http.MethodPost, "/auth/register", "", "10.0.0.2:1234", gin.H{
		"email":         "referred@example.com",
		"name":          "Referred",
		"password":      "password123",
		"referral_code": codeResp.Code,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// An unknown code makes the signup call fail outright.
	w = env.do(t, http.MethodPost, "/auth/register", "", "10.0.0.3:1234", gin.H{
		"email":         "cheater@example.com",
		"name":          "Cheater",
		"password":      "password123",
		"referral_code": "CAREER-0000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateReferralCodeEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	referrerToken := env.registerUser(t, "referrer@example.com")
	w := env.do(t, http.MethodGet, "/api/referrals/code", referrerToken, "", nil)
	var codeResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &codeResp))

	w = env.do(t, http.MethodGet, "/api/referrals/validate?code="+codeResp.Code, "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var validation struct {
		Valid bool `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &validation))
	assert.True(t, validation.Valid)

	w = env.do(t, http.MethodGet, "/api/referrals/validate?code=CAREER-0000", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &validation))
	assert.False(t, validation.Valid)
}

func TestCreateAnalysisRateLimited(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerUser(t, "a@example.com")

	body := gin.H{
		"file_name":      "cv.pdf",
		"file_key":       "cv/key.pdf",
		"extracted_text": "Some CV text.",
	}

	w := env.do(t, http.MethodPost, "/api/analyses", token, "203.0.113.7:1234", body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Same IP inside the cooldown gets a 429 with the seconds left.
	w = env.do(t, http.MethodPost, "/api/analyses", token, "203.0.113.7:1234", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var limited struct {
		SecondsRemaining int64 `json:"seconds_remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &limited))
	assert.Greater(t, limited.SecondsRemaining, int64(0))

	// A different IP is not affected.
	w = env.do(t, http.MethodPost, "/api/analyses", token, "203.0.113.8:1234", body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/analyses", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/analyses", "not-a-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionPing(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerUser(t, "a@example.com")

	w := env.do(t, http.MethodPost, "/api/sessions/ping", token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session struct {
			TotalDuration int64 `json:"total_duration"`
			IsActive      bool  `json:"is_active"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Session.IsActive)
	assert.Equal(t, int64(0), resp.Session.TotalDuration)
}

func TestBillingEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerUser(t, "a@example.com")

	w := env.do(t, http.MethodGet, "/api/billing/pro-status", token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var status struct {
		IsPro bool `json:"is_pro"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.IsPro)

	// Webhook activates a subscription, then the status flips.
	w = env.do(t, http.MethodPost, "/api/billing/webhook", "", "", gin.H{
		"type":                     "subscription.created",
		"user_id":                  1,
		"provider_subscription_id": "sub_1",
		"status":                   "active",
		"current_period_end":       time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/billing/pro-status", token, "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.IsPro)

	w = env.do(t, http.MethodGet, "/api/billing/quote", token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var quote struct {
		FinalPrice string `json:"final_price"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.NotEmpty(t, quote.FinalPrice)
}

func TestCachedAnalysisMarksReferralScan(t *testing.T) {
	env := setupTestEnv(t)

	referrerToken := env.registerUser(t, "referrer@example.com")
	w := env.do(t, http.MethodGet, "/api/referrals/code", referrerToken, "", nil)
	var codeResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &codeResp))

	// Referrer's own scan completes and seeds the cache.
	w = env.do(t, http.MethodPost, "/api/analyses", referrerToken, "203.0.113.1:1", gin.H{
		"file_name":      "cv.pdf",
		"file_key":       "cv/key1.pdf",
		"extracted_text": "Shared CV text.",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Analysis struct {
			ID uint `json:"id"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	analysisService := services.NewAnalysisService(env.db, 7*24*time.Hour)
	claimed, err := analysisService.NextPending()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	rating := 80
	require.NoError(t, analysisService.CompleteAnalysis(claimed.ID, &services.AnalysisResults{
		CVRating:        rating,
		Skills:          []string{"Go"},
		ExperienceLevel: "Senior",
	}))

	// Referred user signs up with the code and submits identical text; the
	// cached completion must still count as their CV scan.
	w = env.do(t, http.MethodPost, "/auth/register", "", "10.9.9.9:1", gin.H{
		"email":         "referred@example.com",
		"name":          "Referred",
		"password":      "password123",
		"referral_code": codeResp.Code,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	w = env.do(t, http.MethodPost, "/api/analyses", reg.Token, "203.0.113.2:1", gin.H{
		"file_name":      "copy.pdf",
		"file_key":       "cv/key2.pdf",
		"extracted_text": "Shared CV text.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cachedResp struct {
		Cached bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cachedResp))
	assert.True(t, cachedResp.Cached)

	var scanCompleted bool
	row := env.db.Table("referrals").Select("cv_scan_completed").
		Where("referred_user_id = ?", reg.User.ID).Row()
	require.NoError(t, row.Scan(&scanCompleted))
	assert.True(t, scanCompleted, "cached completion should satisfy the scan condition")
}
