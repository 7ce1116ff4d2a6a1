// Package web is the gin-based dashboard: authentication, farm data,
// machine and auxiliary-person management, manual task triggers, and the
// Telegram webhook endpoint.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zerbini/agrofrota/internal/auth"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/clima"
	"gorm.io/gorm"
)

// Clima is the weather/news/locality surface the dashboard consumes.
type Clima interface {
	For(ctx context.Context, cidade, estado string) (clima.Weather, error)
	TopHeadlines(ctx context.Context) ([]clima.Article, error)
	Estados(ctx context.Context) ([]clima.Estado, error)
	Municipios(ctx context.Context, uf string) ([]clima.Municipio, error)
}

// Runner is a manually triggerable maintenance cycle step.
type Runner interface {
	Run(ctx context.Context) error
}

// ReportSender builds and delivers manager reports.
type ReportSender interface {
	BuildPDF(gerenteID uint) ([]byte, error)
	SendToManager(ctx context.Context, gerenteID uint) error
}

// InboundHandler consumes webhook chat messages.
type InboundHandler interface {
	HandleInbound(ctx context.Context, in bot.Inbound) error
}

// Speaker synthesizes speech for the audio conversion endpoint.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Server wires the dashboard handlers together.
type Server struct {
	db        *gorm.DB
	auth      *auth.Service
	clima     Clima
	generator Runner
	assigner  Runner
	reports   ReportSender
	inbound   InboundHandler
	speaker   Speaker
	log       *logrus.Logger
	port      int
	now       func() time.Time
	router    *gin.Engine
}

// Opts configures a Server. DB, Auth, Clima, Generator, Assigner, Reports,
// and Inbound are required; Speaker is optional.
type Opts struct {
	DB        *gorm.DB
	Auth      *auth.Service
	Clima     Clima
	Generator Runner
	Assigner  Runner
	Reports   ReportSender
	Inbound   InboundHandler
	Speaker   Speaker
	Log       *logrus.Logger
	Port      int
	Now       func() time.Time
}

// New creates a Server and registers its routes.
func New(o Opts) (*Server, error) {
	if o.DB == nil {
		return nil, fmt.Errorf("web: DB is required")
	}
	if o.Auth == nil {
		return nil, fmt.Errorf("web: Auth is required")
	}
	if o.Clima == nil {
		return nil, fmt.Errorf("web: Clima is required")
	}
	if o.Generator == nil {
		return nil, fmt.Errorf("web: Generator is required")
	}
	if o.Assigner == nil {
		return nil, fmt.Errorf("web: Assigner is required")
	}
	if o.Reports == nil {
		return nil, fmt.Errorf("web: Reports is required")
	}
	if o.Inbound == nil {
		return nil, fmt.Errorf("web: Inbound is required")
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Port <= 0 {
		o.Port = 8000
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	s := &Server{
		db:        o.DB,
		auth:      o.Auth,
		clima:     o.Clima,
		generator: o.Generator,
		assigner:  o.Assigner,
		reports:   o.Reports,
		inbound:   o.Inbound,
		speaker:   o.Speaker,
		log:       o.Log,
		port:      o.Port,
		now:       o.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	s.registerRoutes(router)
	s.router = router
	return s, nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("port", s.port).Info("dashboard no ar")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web: serve: %w", err)
	}
	return nil
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/login", s.handleLoginPage)
	router.POST("/login", s.handleLogin)
	router.GET("/register", s.handleRegisterPage)
	router.POST("/register", s.handleRegister)
	router.GET("/logout", s.handleLogout)
	router.POST("/webhook", s.handleWebhook)

	authed := router.Group("/", s.requireAuth())
	authed.GET("/", s.handleIndex)
	authed.GET("/dashboard", s.handleDashboard)
	authed.GET("/dados_pessoais", s.handleDadosPessoaisPage)
	authed.POST("/dados_pessoais", s.handleDadosPessoais)
	authed.GET("/api/municipios/:uf", s.handleMunicipios)
	authed.GET("/maquinas", s.handleMachinesPage)
	authed.POST("/maquinas", s.handleMachineCreate)
	authed.POST("/maquinas/:id/excluir", s.handleMachineDelete)
	authed.POST("/maquinas/:id/gerente", s.handleMachineManager)
	authed.GET("/pessoas_auxiliares", s.handlePeoplePage)
	authed.POST("/pessoas_auxiliares", s.handlePeopleReplace)
	authed.POST("/gerar_tarefas", s.handleGenerateTasks)
	authed.POST("/assign_tasks", s.handleAssignTasks)
	authed.POST("/send_gerente_report/:id", s.handleSendReport)
	authed.GET("/gerar_relatorio_pdf/:id", s.handleReportPDF)
	authed.POST("/transformar_em_audio", s.handleTextToAudio)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Redirect(http.StatusFound, "/dashboard")
}
