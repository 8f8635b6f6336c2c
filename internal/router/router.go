package router

import (
	"time"

	"gastropos/internal/config"
	"gastropos/internal/handler"
	"gastropos/internal/middleware"
	"gastropos/internal/model"
	"gastropos/internal/repository"
	"gastropos/internal/service"
	"gastropos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	turnoRepo := repository.NewTurnoRepository(db)
	ingresoRepo := repository.NewIngresoRepository(db)
	reemplazoRepo := repository.NewReemplazoRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, movimientoRepo, rdb)
	stockSvc := service.NewStockService(productoRepo, movimientoRepo)
	reconciliador := service.NewReconciliador(productoRepo, stockSvc)
	ventaSvc := service.NewVentaService(ventaRepo, pedidoRepo, productoRepo, stockSvc)
	pedidoSvc := service.NewPedidoService(pedidoRepo, productoRepo, stockSvc, reconciliador, ventaSvc, dispatcher)
	turnoSvc := service.NewTurnoService(turnoRepo, productoRepo, stockSvc, reconciliador, ventaSvc)
	ingresoSvc := service.NewIngresoService(ingresoRepo, productoRepo, stockSvc)
	reemplazoSvc := service.NewReemplazoService(reemplazoRepo, productoRepo, stockSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	pedidosH := handler.NewPedidosHandler(pedidoSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	turnosH := handler.NewTurnosHandler(turnoSvc)
	inventarioH := handler.NewInventarioHandler(ingresoSvc, reemplazoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/registro", middleware.LoginRateLimiter(), authH.Registrar)
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Price check kiosk — no auth required
	r.GET("/v1/productos/:id/precio", productosH.ConsultarPrecio)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/perfil", authH.Perfil)
		v1.PUT("/usuarios/:id/rol", middleware.RequireRole(model.RolAdmin), authH.CambiarRol)

		// Catalog — everyone authenticated can read, only admins write
		v1.GET("/productos", productosH.Listar)
		v1.GET("/productos/:id", productosH.Obtener)
		prods := v1.Group("/productos", middleware.RequireRole(model.RolAdmin))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
		}
		v1.GET("/movimientos", middleware.RequireRole(model.RolVendedor, model.RolAdmin), productosH.Movimientos)

		// Pedidos — the customer flow; seller-only transitions declared per-endpoint
		pedidos := v1.Group("/pedidos")
		{
			pedidos.POST("", pedidosH.Guardar)
			pedidos.GET("", pedidosH.Listar)
			pedidos.GET("/:id", pedidosH.Obtener)
			pedidos.POST("/:id/cerrar", pedidosH.Cerrar)
			pedidos.POST("/:id/disponible", middleware.RequireRole(model.RolVendedor, model.RolAdmin), pedidosH.MarcarDisponible)
			pedidos.POST("/:id/entregar", middleware.RequireRole(model.RolVendedor, model.RolAdmin), pedidosH.Entregar)
			pedidos.POST("/:id/cancelar", pedidosH.Cancelar)
		}

		ventas := v1.Group("/ventas", middleware.RequireRole(model.RolVendedor, model.RolAdmin))
		{
			ventas.POST("", ventasH.Registrar)
			ventas.GET("", ventasH.Listar)
			ventas.GET("/:id", ventasH.Obtener)
			ventas.DELETE("/:id", ventasH.Anular)
		}

		// Mesas — admin manages the floor layout; every staff member can read it
		v1.GET("/mesas", middleware.RequireRole(model.RolMozo, model.RolVendedor, model.RolAdmin), turnosH.ListarMesas)
		mesas := v1.Group("/mesas", middleware.RequireRole(model.RolAdmin))
		{
			mesas.POST("", turnosH.CrearMesa)
			mesas.PUT("/:id", turnosH.ActualizarMesa)
			mesas.DELETE("/:id", turnosH.EliminarMesa)
		}

		turnos := v1.Group("/turnos", middleware.RequireRole(model.RolMozo, model.RolAdmin))
		{
			turnos.POST("", turnosH.Crear)
			turnos.GET("/:id", turnosH.Obtener)
			turnos.PUT("/:id/ordenes", turnosH.GuardarOrdenes)
			turnos.POST("/:id/ordenes/:ordenId/entregar", turnosH.EntregarOrden)
			turnos.POST("/:id/cerrar", turnosH.Cerrar)
			turnos.POST("/:id/anular", turnosH.Anular)
		}

		inv := v1.Group("", middleware.RequireRole(model.RolVendedor, model.RolAdmin))
		{
			inv.POST("/ingresos", inventarioH.RegistrarIngreso)
			inv.GET("/ingresos", inventarioH.ListarIngresos)
			inv.GET("/ingresos/:id", inventarioH.ObtenerIngreso)
			inv.POST("/reemplazos", inventarioH.RegistrarReemplazo)
			inv.GET("/reemplazos", inventarioH.ListarReemplazos)
			inv.GET("/reemplazos/:id", inventarioH.ObtenerReemplazo)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
