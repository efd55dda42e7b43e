package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/farmsaathi/farmsaathi/internal/access"
	"github.com/farmsaathi/farmsaathi/internal/activity"
	activitydomain "github.com/farmsaathi/farmsaathi/internal/activity/domain"
	"github.com/farmsaathi/farmsaathi/internal/config"
	"github.com/farmsaathi/farmsaathi/internal/farm"
	farmservice "github.com/farmsaathi/farmsaathi/internal/farm/service"
	"github.com/farmsaathi/farmsaathi/internal/finance"
	financedomain "github.com/farmsaathi/farmsaathi/internal/finance/domain"
	"github.com/farmsaathi/farmsaathi/internal/posting"
	"github.com/farmsaathi/farmsaathi/internal/registry"
	registryservice "github.com/farmsaathi/farmsaathi/internal/registry/service"
	"github.com/farmsaathi/farmsaathi/internal/reports"
)

var Module = fx.Module("http.server",
	farm.Module,
	finance.Module,
	posting.Module,
	activity.Module,
	registry.Module,
	reports.Module,
	fx.Provide(access.NewEnforcer),
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(gatherer prometheus.Gatherer, cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	genID        *snowflake.Node
	enforcer     *casbin.Enforcer
	cropSvc      *farmservice.CropService
	livestockSvc *farmservice.LivestockService
	inventorySvc *farmservice.InventoryService
	financeSvc   financedomain.Service
	activitySvc  activitydomain.Service
	employeeSvc  *registryservice.EmployeeService
	equipmentSvc *registryservice.EquipmentService
	reportsSvc   *reports.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	GenID        *snowflake.Node
	Enforcer     *casbin.Enforcer
	CropSvc      *farmservice.CropService
	LivestockSvc *farmservice.LivestockService
	InventorySvc *farmservice.InventoryService
	FinanceSvc   financedomain.Service
	ActivitySvc  activitydomain.Service
	EmployeeSvc  *registryservice.EmployeeService
	EquipmentSvc *registryservice.EquipmentService
	ReportsSvc   *reports.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		genID:        p.GenID,
		enforcer:     p.Enforcer,
		cropSvc:      p.CropSvc,
		livestockSvc: p.LivestockSvc,
		inventorySvc: p.InventorySvc,
		financeSvc:   p.FinanceSvc,
		activitySvc:  p.ActivitySvc,
		employeeSvc:  p.EmployeeSvc,
		equipmentSvc: p.EquipmentSvc,
		reportsSvc:   p.ReportsSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.PrincipalRequired())

	api.GET("/me", s.Me)

	// -------- Crops --------
	api.GET("/crops", s.RequireAction(access.ObjectCrop, access.ActionView), s.ListCrops)
	api.POST("/crops", s.RequireAction(access.ObjectCrop, access.ActionCreate), s.CreateCrop)
	api.GET("/crops/:id", s.RequireAction(access.ObjectCrop, access.ActionView), s.GetCropByID)
	api.PATCH("/crops/:id", s.RequireAction(access.ObjectCrop, access.ActionUpdate), s.UpdateCrop)
	api.DELETE("/crops/:id", s.RequireAction(access.ObjectCrop, access.ActionDelete), s.DeleteCrop)
	api.POST("/crops/:id/events", s.RequireAction(access.ObjectCrop, access.ActionRecord), s.AppendCropEvent)

	// -------- Livestock --------
	api.GET("/livestock", s.RequireAction(access.ObjectLivestock, access.ActionView), s.ListLivestock)
	api.POST("/livestock", s.RequireAction(access.ObjectLivestock, access.ActionCreate), s.CreateLivestock)
	api.GET("/livestock/:id", s.RequireAction(access.ObjectLivestock, access.ActionView), s.GetLivestockByID)
	api.PATCH("/livestock/:id", s.RequireAction(access.ObjectLivestock, access.ActionUpdate), s.UpdateLivestock)
	api.DELETE("/livestock/:id", s.RequireAction(access.ObjectLivestock, access.ActionDelete), s.DeleteLivestock)
	api.POST("/livestock/:id/events", s.RequireAction(access.ObjectLivestock, access.ActionRecord), s.AppendLivestockEvent)

	// -------- Inventory --------
	api.GET("/inventory", s.RequireAction(access.ObjectInventory, access.ActionView), s.ListInventory)
	api.POST("/inventory", s.RequireAction(access.ObjectInventory, access.ActionCreate), s.CreateInventoryItem)
	api.GET("/inventory/:id", s.RequireAction(access.ObjectInventory, access.ActionView), s.GetInventoryItemByID)
	api.PATCH("/inventory/:id", s.RequireAction(access.ObjectInventory, access.ActionUpdate), s.UpdateInventoryItem)
	api.DELETE("/inventory/:id", s.RequireAction(access.ObjectInventory, access.ActionDelete), s.DeleteInventoryItem)
	api.POST("/inventory/:id/events", s.RequireAction(access.ObjectInventory, access.ActionRecord), s.AppendInventoryEvent)

	// -------- Finance --------
	api.GET("/finance/records", s.RequireAction(access.ObjectFinance, access.ActionView), s.ListFinancialRecords)
	api.POST("/finance/records", s.RequireAction(access.ObjectFinance, access.ActionCreate), s.CreateFinancialRecord)
	api.GET("/finance/summary", s.RequireAction(access.ObjectFinance, access.ActionView), s.GetFinanceSummary)

	// -------- Reports --------
	api.GET("/reports/overview", s.RequireAction(access.ObjectReport, access.ActionView), s.GetReportOverview)

	// -------- Registry --------
	api.GET("/employees", s.RequireAction(access.ObjectEmployee, access.ActionView), s.ListEmployees)
	api.POST("/employees", s.RequireAction(access.ObjectEmployee, access.ActionCreate), s.CreateEmployee)
	api.GET("/employees/:id", s.RequireAction(access.ObjectEmployee, access.ActionView), s.GetEmployeeByID)
	api.PATCH("/employees/:id", s.RequireAction(access.ObjectEmployee, access.ActionUpdate), s.UpdateEmployee)
	api.DELETE("/employees/:id", s.RequireAction(access.ObjectEmployee, access.ActionDelete), s.DeleteEmployee)

	api.GET("/equipment", s.RequireAction(access.ObjectEquipment, access.ActionView), s.ListEquipment)
	api.POST("/equipment", s.RequireAction(access.ObjectEquipment, access.ActionCreate), s.CreateEquipment)
	api.GET("/equipment/:id", s.RequireAction(access.ObjectEquipment, access.ActionView), s.GetEquipmentByID)
	api.PATCH("/equipment/:id", s.RequireAction(access.ObjectEquipment, access.ActionUpdate), s.UpdateEquipment)
	api.DELETE("/equipment/:id", s.RequireAction(access.ObjectEquipment, access.ActionDelete), s.DeleteEquipment)

	// -------- Activity (admin only via policy) --------
	api.GET("/activity", s.RequireAction(access.ObjectActivityLog, access.ActionView), s.ListActivityLogs)
}
