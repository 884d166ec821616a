package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ledgerapi "github.com/kwachasoft/coopfin/internal/ledger/api"
	loanapi "github.com/kwachasoft/coopfin/internal/loan/api"
	memberapi "github.com/kwachasoft/coopfin/internal/member/api"
	"github.com/kwachasoft/coopfin/internal/platform/web"
	reportingapi "github.com/kwachasoft/coopfin/internal/reporting/api"
	savingsapi "github.com/kwachasoft/coopfin/internal/savings/api"
	withdrawalapi "github.com/kwachasoft/coopfin/internal/withdrawal/api"
)

// Handlers groups the module route registrars mounted under /api/v1.
type Handlers struct {
	Ledger     *ledgerapi.LedgerHandler
	Loan       *loanapi.LoanHandler
	Member     *memberapi.MemberHandler
	Savings    *savingsapi.SavingsHandler
	Withdrawal *withdrawalapi.WithdrawalHandler
	Reporting  *reportingapi.ReportingHandler
}

// Server wraps the HTTP service.
type Server struct {
	engine *gin.Engine
	logger *zap.Logger
	port   string
	server *http.Server
}

// NewServer builds the gin engine with the shared middleware chain and
// mounts every module's routes.
func NewServer(logger *zap.Logger, cfgPort, cfgMode string, handlers Handlers) *Server {
	if cfgMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())

	// Request logging through zap.
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("http request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
		)
	})

	// CORS for the member portal.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-User-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Caller identification. Trusts the X-User-ID header until the JWT
	// middleware replaces this.
	r.Use(func(c *gin.Context) {
		actor := c.GetHeader("X-User-ID")
		if actor == "" {
			actor = "admin"
		}
		c.Set(web.ActorKey, actor)
		c.Next()
	})

	v1 := r.Group("/api/v1")
	{
		handlers.Ledger.RegisterRoutes(v1)
		handlers.Loan.RegisterRoutes(v1)
		handlers.Member.RegisterRoutes(v1)
		handlers.Savings.RegisterRoutes(v1)
		handlers.Withdrawal.RegisterRoutes(v1)
		handlers.Reporting.RegisterRoutes(v1)

		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "UP"})
		})
	}

	return &Server{
		engine: r,
		logger: logger,
		port:   cfgPort,
	}
}

// Run starts the listener and blocks until it stops.
func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:    ":" + s.port,
		Handler: s.engine,
	}
	s.logger.Info("http server started", zap.String("port", s.port))
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests before closing.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
