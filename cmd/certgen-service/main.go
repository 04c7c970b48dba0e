package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edutec-labs/certgen-service/internal/api"
	"github.com/edutec-labs/certgen-service/internal/config"
	"github.com/edutec-labs/certgen-service/internal/database"
	"github.com/edutec-labs/certgen-service/internal/email"
	"github.com/edutec-labs/certgen-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Configurar logging
	logger := setupLogger(cfg)
	logger.Info("Starting Certificate Service...")

	// Configurar modo de Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	// Conectar a Redis (caché de verificación pública)
	redis, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warnf("Error connecting to Redis, verification cache disabled: %v", err)
		redis = nil
	} else {
		defer redis.Close()
	}

	// Inicializar almacenamiento de objetos
	var storageClient *database.ObjectStorageClient
	if cfg.HasStorage() {
		storageClient, err = database.NewObjectStorageClient(&cfg.Storage, logger)
		if err != nil {
			logger.Warnf("Error initializing object storage client: %v", err)
			storageClient = nil
		} else {
			if err := storageClient.HealthCheck(); err != nil {
				logger.Warnf("Object storage health check failed: %v", err)
			} else {
				logger.Info("Object storage connection healthy")
			}
		}
	} else {
		logger.Warn("Object storage credentials not provided, template backgrounds and PDF uploads will not be available")
	}

	// Inicializar servicio de Resend
	var resendService *email.ResendService
	if cfg.Email.ResendAPIKey != "" {
		resendService = email.NewResendService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.Server.BaseURL, logger)
		logger.Info("Resend service initialized successfully")
	} else {
		logger.Warn("Resend API key not provided, email notifications will not be available")
	}

	// Inicializar repositorios
	templateRepo := database.NewTemplateRepository(db, logger)
	certificateRepo := database.NewCertificateRepository(db, logger)
	fileRepo := database.NewCertificateFileRepository(db, logger)

	// Inicializar servicios
	binder := services.NewRecordBinder(cfg.Institute.Name, logger)
	renderer := services.NewRenderer(logger)

	// Las dependencias opcionales se pasan como nil cuando no están
	// configuradas; los servicios se degradan sin error
	var storage services.AssetStorage
	if storageClient != nil {
		storage = storageClient
	}
	var cache services.VerificationCache
	if redis != nil {
		cache = redis
	}
	var notifier services.Notifier
	if resendService != nil {
		notifier = resendService
	}

	templateService := services.NewTemplateService(templateRepo, storage, logger)
	certificateService := services.NewCertificateService(
		certificateRepo, templateRepo, fileRepo,
		binder, renderer,
		storage, cache, notifier,
		cfg.Redis.VerifyTTL, logger,
	)
	batchService := services.NewBatchService(certificateService, &cfg.Batch, logger)

	// Inicializar API
	apiHandler := api.NewAPI(templateService, certificateService, batchService, logger)

	// Configurar router
	router := setupRouter(apiHandler, cfg, db, redis)

	// Crear servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales de terminación
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar servidor en goroutine
	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	// Esperar señal de terminación
	<-quit
	logger.Info("Shutting down server...")

	// Contexto con timeout para shutdown graceful
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown graceful del servidor
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	// Configurar nivel de log
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Configurar formato
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupRouter configura el router principal
func setupRouter(apiHandler *api.API, cfg *config.Config, db *database.DB, redis *database.Redis) *gin.Engine {
	router := gin.New()

	// Middleware global
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Middleware de CORS para desarrollo
	if cfg.IsDevelopment() {
		router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		checks := gin.H{}

		if err := db.HealthCheck(); err != nil {
			status = "degraded"
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}
		if redis != nil {
			if err := redis.HealthCheck(); err != nil {
				status = "degraded"
				checks["redis"] = err.Error()
			} else {
				checks["redis"] = "ok"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().UTC(),
			"service":   "certgen-service",
			"version":   "1.0.0",
		})
	})

	// API v1
	v1 := router.Group("/v1")
	{
		// Plantillas
		templates := v1.Group("/templates")
		{
			templates.POST("", apiHandler.CreateTemplate)
			templates.GET("", apiHandler.ListTemplates)
			templates.GET("/active", apiHandler.GetActiveTemplate)
			templates.GET("/:id", apiHandler.GetTemplate)
			templates.PATCH("/:id", apiHandler.UpdateTemplate)
			templates.POST("/:id/activate", apiHandler.ActivateTemplate)
			templates.POST("/:id/background", apiHandler.UploadTemplateBackground)
			templates.DELETE("/:id", apiHandler.DeleteTemplate)
		}

		// Certificados
		certificates := v1.Group("/certificates")
		{
			certificates.POST("", apiHandler.IssueCertificate)
			certificates.GET("", apiHandler.ListCertificates)
			certificates.GET("/:id", apiHandler.GetCertificate)
			certificates.GET("/:id/file", apiHandler.GetCertificateFile)
			certificates.POST("/:id/revoke", apiHandler.RevokeCertificate)
		}

		// Importación masiva
		v1.POST("/batches", apiHandler.ImportBatch)

		// Endpoints PÚBLICOS (sin autenticación)
		verify := v1.Group("/verify")
		{
			verify.GET("/:code", apiHandler.VerifyCertificate)
			verify.GET("/:code/file", apiHandler.VerifyCertificateFile)
		}
	}

	return router
}
