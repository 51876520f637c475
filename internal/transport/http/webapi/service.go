// Package webapi exposes the platform's REST surface. Handlers parse and
// validate transport concerns only; authorization and domain rules live
// behind the gateway.
package webapi

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"hashhive-server-go/internal/domain/auth"
	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/domain/cloudminer"
	"hashhive-server-go/internal/domain/fleet/aggregate"
	"hashhive-server-go/internal/domain/optimizer"
	"hashhive-server-go/internal/gateway"
	"hashhive-server-go/internal/platform/config"
	"hashhive-server-go/internal/platform/errors"
	"hashhive-server-go/internal/platform/logging"
	httptransport "hashhive-server-go/internal/transport/http"
)

// SessionCookie names the browser session cookie.
const SessionCookie = "hashhive_session"

const actorKey = "hashhive.actor"

// Service is the HTTP transport for the gateway.
type Service struct {
	config  *config.Config
	logger  *logging.Logger
	gateway *gateway.Gateway
	auth    *auth.Manager
	cloud   *cloudminer.Service
	started time.Time
}

func NewService(cfg *config.Config, logger *logging.Logger, gw *gateway.Gateway, authMgr *auth.Manager, cloud *cloudminer.Service) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "config is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "logger is required")
	}
	if gw == nil {
		return nil, errors.New(errors.KindConfig, "webapi.new", "gateway is required")
	}
	return &Service{
		config:  cfg,
		logger:  logger,
		gateway: gw,
		auth:    authMgr,
		cloud:   cloud,
		started: time.Now(),
	}, nil
}

// Register wires all routes onto the /api group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.Use(s.actorMiddleware())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/session", s.handleSessionCreate)
		authGroup.DELETE("/session", s.handleSessionRevoke)
		authGroup.POST("/2fa", s.handleTwoFactor)
	}

	devices := router.Group("/devices")
	{
		devices.POST("", s.handleDeviceRegister)
		devices.GET("", s.handleDeviceList)
		devices.GET("/:id", s.handleDeviceGet)
		devices.PUT("/:id", s.handleDeviceUpdate)
		devices.DELETE("/:id", s.handleDeviceRemove)
		devices.GET("/:id/optimization", s.handleDeviceOptimization)
	}

	miner := router.Group("/cloudminer")
	{
		miner.GET("/config", s.handleConfigGet)
		miner.PUT("/config", s.handleConfigUpdate)
		miner.POST("/config/reset", s.handleConfigReset)
		miner.GET("/access-key", s.handleAccessKeyRead)
		miner.POST("/access-key/regenerate", s.handleAccessKeyRegenerate)
	}

	// Out-of-band automation authenticates with the access key, not a session.
	router.GET("/automation/config", s.handleAutomationConfig)

	router.GET("/mining/stats", s.handleMiningStats)
	router.POST("/guardian/scan", s.handleGuardianScan)
	router.GET("/system/status", s.handleSystemStatus)
	router.GET("/audit", s.handleAuditList)

	s.logger.InfoTag("HTTP", "web API routes registered")
	return nil
}

// actorMiddleware resolves the caller's session into an Actor. Absent or
// invalid credentials yield a nil actor; handlers decide whether that is
// acceptable through the gateway.
func (s *Service) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if cookie, err := c.Cookie(SessionCookie); err == nil {
			token = cookie
		}
		if token == "" {
			header := c.GetHeader("Authorization")
			const prefix = "Bearer "
			if len(header) > len(prefix) && header[:len(prefix)] == prefix {
				token = header[len(prefix):]
			}
		}
		if token != "" && s.auth != nil {
			actor, err := s.auth.ResolveActor(c.Request.Context(), token)
			if err != nil {
				s.logger.WarnTag("HTTP", "session resolution failed: %v", err)
			} else if actor != nil {
				c.Set(actorKey, actor)
				c.Set("session_token", token)
			}
		}
		c.Next()
	}
}

func (s *Service) actor(c *gin.Context) *model.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*model.Actor)
	return actor
}

type sessionRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// handleSessionCreate issues a session for a caller vouched for by the
// identity collaborator via the shared server token.
func (s *Service) handleSessionCreate(c *gin.Context) {
	if s.config.Server.Token == "" || c.GetHeader("Token") != s.config.Server.Token {
		httptransport.RespondErrorKind(c, errors.KindAuthentication, "invalid server token")
		return
	}

	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondErrorKind(c, errors.KindValidation, "userId and role are required")
		return
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		httptransport.RespondErrorKind(c, errors.KindValidation, "unknown role")
		return
	}

	session, err := s.auth.IssueSession(c.Request.Context(), req.UserID, role)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}

	c.SetCookie(SessionCookie, session.Token, int(time.Until(session.ExpiresAt).Seconds()), "/", "", false, true)
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
	})
}

func (s *Service) handleSessionRevoke(c *gin.Context) {
	token := c.GetString("session_token")
	if token == "" {
		httptransport.RespondErrorKind(c, errors.KindAuthentication, "no active session")
		return
	}
	if err := s.auth.RevokeSession(c.Request.Context(), token); err != nil {
		httptransport.RespondError(c, err)
		return
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	httptransport.RespondSuccess(c, http.StatusOK, nil)
}

// handleTwoFactor marks the current session as two-factor verified. The
// verification itself happens with the identity collaborator; this endpoint
// records the outcome, again vouched for by the server token.
func (s *Service) handleTwoFactor(c *gin.Context) {
	if s.config.Server.Token == "" || c.GetHeader("Token") != s.config.Server.Token {
		httptransport.RespondErrorKind(c, errors.KindAuthentication, "invalid server token")
		return
	}
	token := c.GetString("session_token")
	if token == "" {
		httptransport.RespondErrorKind(c, errors.KindAuthentication, "no active session")
		return
	}
	if err := s.auth.MarkTwoFactor(c.Request.Context(), token); err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, nil)
}

func (s *Service) handleDeviceRegister(c *gin.Context) {
	actor := s.actor(c)

	var in aggregate.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		httptransport.RespondErrorKind(c, errors.KindValidation, "malformed device payload")
		return
	}
	if in.OwnerID == "" && actor != nil {
		in.OwnerID = actor.UserID
	}

	device, err := s.gateway.DeviceRegister(c.Request.Context(), actor, in)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, device)
}

func (s *Service) handleDeviceList(c *gin.Context) {
	devices, err := s.gateway.DeviceList(c.Request.Context(), s.actor(c), c.Query("ownerId"))
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, devices)
}

func (s *Service) handleDeviceGet(c *gin.Context) {
	device, err := s.gateway.DeviceGet(c.Request.Context(), s.actor(c), c.Param("id"))
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, device)
}

func (s *Service) handleDeviceUpdate(c *gin.Context) {
	var patch aggregate.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httptransport.RespondErrorKind(c, errors.KindValidation, "malformed device patch")
		return
	}

	device, err := s.gateway.DeviceUpdate(c.Request.Context(), s.actor(c), c.Param("id"), patch)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, device)
}

func (s *Service) handleDeviceRemove(c *gin.Context) {
	if err := s.gateway.DeviceRemove(c.Request.Context(), s.actor(c), c.Param("id")); err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, nil)
}

func (s *Service) handleDeviceOptimization(c *gin.Context) {
	opts := optimizer.Options{
		Intensity:  s.config.Advisor.DefaultIntensity,
		MaxThreads: s.config.Advisor.MaxThreads,
	}
	if raw := c.Query("intensity"); raw != "" {
		intensity, err := strconv.Atoi(raw)
		if err != nil {
			httptransport.RespondErrorKind(c, errors.KindValidation, "intensity must be an integer")
			return
		}
		opts.Intensity = intensity
	}

	rec, err := s.gateway.DeviceOptimization(c.Request.Context(), s.actor(c), c.Param("id"), opts)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, rec)
}

func (s *Service) handleConfigGet(c *gin.Context) {
	cfg, err := s.gateway.ConfigGet(c.Request.Context(), s.actor(c))
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, cfg)
}

type configUpdateRequest struct {
	cloudminer.Patch
	ExpectedVersion int64 `json:"expectedVersion" binding:"required"`
}

func (s *Service) handleConfigUpdate(c *gin.Context) {
	var req configUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondErrorKind(c, errors.KindValidation, "malformed config payload; expectedVersion is required")
		return
	}

	cfg, err := s.gateway.ConfigUpdate(c.Request.Context(), s.actor(c), req.Patch, req.ExpectedVersion)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, cfg)
}

func (s *Service) handleConfigReset(c *gin.Context) {
	cfg, err := s.gateway.ConfigReset(c.Request.Context(), s.actor(c))
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, cfg)
}

func (s *Service) handleAccessKeyRead(c *gin.Context) {
	key, err := s.gateway.AccessKeyRead(c.Request.Context(), s.actor(c))
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, key)
}

func (s *Service) handleAccessKeyRegenerate(c *gin.Context) {
	key, err := s.gateway.AccessKeyRegenerate(c.Request.Context(), s.actor(c))
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, key)
}

// handleAutomationConfig serves the mining configuration to out-of-band
// automation holding the current access key.
func (s *Service) handleAutomationConfig(c *gin.Context) {
	key := c.GetHeader("X-Access-Key")
	if key == "" || s.cloud == nil || !s.cloud.Verify(key) {
		httptransport.RespondErrorKind(c, errors.KindAuthentication, "invalid access key")
		return
	}
	cfg, err := s.cloud.GetConfig(c.Request.Context())
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, cfg)
}

func (s *Service) handleAuditList(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httptransport.RespondErrorKind(c, errors.KindValidation, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := s.gateway.AuditRecent(c.Request.Context(), s.actor(c), limit)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, records)
}

// handleMiningStats returns illustrative pool statistics. The platform does
// not talk to a real pool; numbers are representative placeholders.
func (s *Service) handleMiningStats(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"poolHashRate":     184.2,
		"networkHashRate":  9823.7,
		"connectedWorkers": 412,
		"sharesAccepted":   12894,
		"sharesRejected":   37,
		"estimatedDaily":   0.0031,
		"unit":             "MH/s",
		"sampledAt":        time.Now().UTC(),
	})
}

// handleGuardianScan returns a canned clean report. No scanning of the
// caller's machine takes place.
func (s *Service) handleGuardianScan(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"status":        "clean",
		"threatsFound":  0,
		"itemsScanned":  1024,
		"scanDurationS": 3,
		"notice":        "demonstration result; no files were scanned",
		"completedAt":   time.Now().UTC(),
	})
}

// handleSystemStatus reports host health for the operations dashboard.
func (s *Service) handleSystemStatus(c *gin.Context) {
	status := gin.H{
		"goroutines": runtime.NumGoroutine(),
		"uptimeS":    int(time.Since(s.started).Seconds()),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status["cpuPercent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status["memUsedPercent"] = vm.UsedPercent
		status["memTotalBytes"] = vm.Total
	}
	if info, err := host.Info(); err == nil {
		status["hostname"] = info.Hostname
		status["os"] = info.OS
		status["hostUptimeS"] = info.Uptime
	}

	httptransport.RespondSuccess(c, http.StatusOK, status)
}
