package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/facepay/backend/docs"
	"github.com/facepay/backend/internal/audit"
	"github.com/facepay/backend/internal/config"
	"github.com/facepay/backend/internal/database"
	"github.com/facepay/backend/internal/handlers"
	mW "github.com/facepay/backend/internal/middleware"
	"github.com/facepay/backend/internal/services"
)

// @title FacePay Backend API
// @version 1.0
// @description Wallet-pay kiosk backend with face-embedding verification
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	faceConfig := config.LoadFaceConfig()
	log.Printf("Face verification threshold: %.2f", faceConfig.CosineThreshold)

	// Swagger docs
	docs.SwaggerInfo.Title = "FacePay Backend API"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize store
	db := database.MustOpenDB()
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	auditLogger := audit.NewLogger()
	walletService := services.NewWalletService(db, auditLogger)
	checkoutService := services.NewCheckoutService(db, auditLogger)
	catalogService := services.NewCatalogService(db, redisClient)
	faceService := services.NewFaceService(db, auditLogger, faceConfig.CosineThreshold)
	receiptService := services.NewReceiptService(checkoutService, redisClient, faceConfig.ReceiptTimeout)

	faceHandler := handlers.NewFaceHandler(faceService)
	receiptHandler := handlers.NewReceiptHandler(receiptService)

	// Setup router
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check reports store liveness and the active threshold
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"ok": false})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":        true,
			"threshold": faceService.Threshold(),
		})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for product images
	r.Handle("/static/products/*", http.StripPrefix("/static/products/",
		mW.StaticFileServer("./static/products")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Kiosk-facing endpoints (identity is established biometrically)
		r.Post("/verify", faceHandler.Verify)
		r.Get("/products", catalogService.ListProducts)
		r.Post("/checkout", checkoutService.HandleCheckout)
		r.Get("/user/{id}", walletService.GetUser)
		r.Get("/user/{id}/balance", walletService.GetUserBalance)
		r.Get("/user/{id}/transactions", walletService.GetUserTransactions)
		r.Get("/user/{id}/auth-stats", faceHandler.AuthStats)
		r.Get("/orders/{orderId}/receipt", receiptHandler.IssueReceipt)
		r.Post("/receipts/redeem", receiptHandler.RedeemReceipt)

		// Operator endpoints
		r.Group(func(r chi.Router) {
			r.Use(mW.OperatorAuth)

			r.Post("/users", walletService.RegisterUser)
			r.Post("/enroll", faceHandler.Enroll)
			r.Post("/products", catalogService.AddProduct)
			r.Delete("/products/{id}", catalogService.RemoveProduct)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
