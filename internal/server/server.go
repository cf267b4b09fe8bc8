package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/propostas/internal/audit/domain"
	authdomain "github.com/smallbiznis/propostas/internal/auth/domain"
	"github.com/smallbiznis/propostas/internal/authorization"
	"github.com/smallbiznis/propostas/internal/config"
	invitationdomain "github.com/smallbiznis/propostas/internal/invitation/domain"
	memberdomain "github.com/smallbiznis/propostas/internal/membership/domain"
	"github.com/smallbiznis/propostas/internal/observability"
	obslogger "github.com/smallbiznis/propostas/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/propostas/internal/observability/metrics"
	obstracing "github.com/smallbiznis/propostas/internal/observability/tracing"
	organizationdomain "github.com/smallbiznis/propostas/internal/organization/domain"
	proposaldomain "github.com/smallbiznis/propostas/internal/proposal/domain"
	"github.com/smallbiznis/propostas/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoMethod(func(c *gin.Context) {
		AbortWithError(c, errMethodNotAllowed)
	})
	r.NoRoute(func(c *gin.Context) {
		AbortWithError(c, errRouteNotFound)
	})

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	verifier    authdomain.Verifier
	limiter     *ratelimit.Limiter
	authzSvc    authorization.Service
	auditSvc    auditdomain.Service
	memberSvc   memberdomain.Service
	inviteSvc   invitationdomain.Service
	orgSvc      organizationdomain.Service
	proposalSvc proposaldomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Verifier    authdomain.Verifier
	Limiter     *ratelimit.Limiter `optional:"true"`
	AuthzSvc    authorization.Service
	AuditSvc    auditdomain.Service
	MemberSvc   memberdomain.Service
	InviteSvc   invitationdomain.Service
	OrgSvc      organizationdomain.Service
	ProposalSvc proposaldomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		verifier:    p.Verifier,
		limiter:     p.Limiter,
		authzSvc:    p.AuthzSvc,
		auditSvc:    p.AuditSvc,
		memberSvc:   p.MemberSvc,
		inviteSvc:   p.InviteSvc,
		orgSvc:      p.OrgSvc,
		proposalSvc: p.ProposalSvc,
	}

	svc.registerFunctionRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerFunctionRoutes mounts the single-purpose POST endpoints. Every
// method is routed so that preflight and 405 answers carry CORS headers.
func (s *Server) registerFunctionRoutes() {
	fn := s.engine.Group("/functions/v1", FunctionCORS())

	fn.Any("/invite_member", s.AuthRequired(), s.RateLimit("invite_member"), s.InviteMember)
	fn.Any("/change_member_role", s.AuthRequired(), s.RateLimit("change_member_role"), s.ChangeMemberRole)
	fn.Any("/remove_member", s.AuthRequired(), s.RateLimit("remove_member"), s.RemoveMember)
	fn.Any("/validate_invite", s.ValidateInvite)
	fn.Any("/accept_invite", s.AuthRequired(), s.RateLimit("accept_invite"), s.AcceptInvite)
	fn.Any("/complete_onboarding", s.AuthRequired(), s.CompleteOnboarding)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", APICORS())
	api.OPTIONS("/*path", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	api.Use(s.AuthRequired())

	// -------- Organizations --------
	api.GET("/organizations", s.ListOrganizations)
	api.GET("/organizations/:id", s.authorizeOrgAction(authorization.ObjectOrganization, authorization.ActionOrganizationView), s.GetOrganization)
	api.GET("/organizations/:id/members", s.authorizeOrgAction(authorization.ObjectMember, authorization.ActionMemberView), s.ListMembers)
	api.GET("/organizations/:id/invites", s.authorizeOrgAction(authorization.ObjectInvite, authorization.ActionInviteView), s.ListInvites)
	api.GET("/organizations/:id/audit_logs", s.authorizeOrgAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)

	// -------- Proposals --------
	api.GET("/proposals", s.ListProposals)
	api.POST("/proposals", s.CreateProposal)
	api.GET("/proposals/new", s.NewProposalDraft)
	api.GET("/proposals/next_number", s.NextProposalNumber)
	api.GET("/proposals/:id", s.GetProposal)
	api.PUT("/proposals/:id", s.UpdateProposal)
	api.DELETE("/proposals/:id", s.DeleteProposal)
	api.POST("/proposals/:id/duplicate", s.DuplicateProposal)
}
