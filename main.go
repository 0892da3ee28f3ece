package main

import (
	"database/sql"
	"net/http"
	"time"

	"veshop-backend/handlers"
	"veshop-backend/models"
	"veshop-backend/pkg/apperror"
	"veshop-backend/pkg/config"
	"veshop-backend/pkg/database"
	"veshop-backend/pkg/logger"
	"veshop-backend/pkg/mail"
	"veshop-backend/pkg/notification"
	"veshop-backend/pkg/ratelimit"
	"veshop-backend/pkg/response"
	"veshop-backend/pkg/seed"
	"veshop-backend/pkg/tokenstore"
	"veshop-backend/pkg/translator"
	"veshop-backend/pkg/websocket"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// @title           VeShop API
// @version         1.0
// @description     Backend API cho cửa hàng thương mại điện tử VeShop.

// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Nhập JWT token: "Bearer {token}"

func main() {
	envLoaded := godotenv.Load() == nil

	cfg := config.LoadConfig()
	if err := logger.InitLogger(cfg.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if envLoaded {
		logger.Info("✅ .env file loaded")
	}

	// Postgres
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("❌ Database connection failed", zap.Error(err))
	}
	defer db.Close()
	logger.Info("✅ Database connected",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
	)

	if err := database.RunMigrations(db, "migrations"); err != nil {
		logger.Fatal("❌ Migrations failed", zap.Error(err))
	}

	if cfg.IsDevelopment() {
		seed.Run(db)
	}

	// Redis: short-lived tokens and rate limiting
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	tokens := tokenstore.NewRedisStore(redisClient, cfg.ResetTokenTTL, cfg.TokenCleanupTTL)

	// Auth endpoints share one fixed-window limiter.
	authLimiter := ratelimit.NewRedisLimiter(redisClient, 10, time.Minute)

	// Mail: real SMTP when configured, console mock otherwise
	var mailer mail.Mailer
	if cfg.HasMailConfig() {
		mailer = mail.NewSMTPMailer(cfg)
		logger.Info("✅ SMTP mailer configured", zap.String("host", cfg.MailHost))
	} else {
		mailer = &mail.MockMailer{}
		logger.Warn("⚠️ MAIL_HOST not set, emails are logged instead of sent")
	}

	// Push notifications (optional)
	notifier := notification.NewOneSignalService(cfg.OneSignalAppID, cfg.OneSignalAPIKey)
	if notifier.Enabled() {
		logger.Info("✅ OneSignal push notifications enabled")
	}

	// Product copy translation (optional)
	trans := translator.NewService(cfg.OpenAIAPIKey)
	if trans.Enabled() {
		logger.Info("✅ DeepSeek translation enabled")
	}

	// Admin dashboard realtime feed
	hub := websocket.NewHub()
	go hub.Run()

	requireAdmin := handlers.RequireRole(db, cfg.JWTSecret, models.RoleAdmin)

	// Auth
	http.HandleFunc("/api/register", handlers.CORS(handlers.RateLimit(authLimiter, handlers.Register(db, tokens, mailer))))
	http.HandleFunc("/api/login", handlers.CORS(handlers.RateLimit(authLimiter, handlers.Login(db, cfg))))
	http.HandleFunc("/api/verify-otp", handlers.CORS(handlers.RateLimit(authLimiter, handlers.VerifyOtp(db, tokens))))
	http.HandleFunc("/api/resend-otp", handlers.CORS(handlers.RateLimit(authLimiter, handlers.ResendOtp(db, tokens, mailer))))
	http.HandleFunc("/api/forgot-password", handlers.CORS(handlers.RateLimit(authLimiter, handlers.ForgotPassword(db, tokens, mailer))))
	http.HandleFunc("/api/resend-forgot-token", handlers.CORS(handlers.RateLimit(authLimiter, handlers.ResendForgotToken(db, cfg, tokens, mailer))))
	http.HandleFunc("/api/verify-forgot-token", handlers.CORS(handlers.VerifyForgotToken(tokens)))
	http.HandleFunc("/api/reset-passwords", handlers.CORS(handlers.RateLimit(authLimiter, handlers.ResetPassword(db, tokens))))

	// Catalog (public reads)
	http.HandleFunc("/api/products", handlers.CORS(productsHandler(db, trans, requireAdmin)))
	http.HandleFunc("/api/products/", handlers.CORS(productByIDHandler(db, trans, requireAdmin)))
	http.HandleFunc("/api/brands", handlers.CORS(handlers.GetBrands(db)))
	http.HandleFunc("/api/categories", handlers.CORS(handlers.GetCategories(db)))

	// Orders
	http.HandleFunc("/api/orders", handlers.CORS(handlers.JWTMiddleware(cfg.JWTSecret, handlers.CustomerOrdersHandler(db, hub))))
	http.HandleFunc("/api/orders/", handlers.CORS(orderByIDHandler(db, cfg, requireAdmin)))

	// Status transitions (legacy: no auth, kept for the shipper integration)
	http.HandleFunc("/api/orders/shipper/", handlers.CORS(handlers.TransitionOrder(db, hub, notifier, "/api/orders/shipper/", models.StatusShipping)))
	http.HandleFunc("/api/orders/cancel/", handlers.CORS(handlers.TransitionOrder(db, hub, notifier, "/api/orders/cancel/", models.StatusCancelled)))
	http.HandleFunc("/api/orders/delivered/", handlers.CORS(handlers.TransitionOrder(db, hub, notifier, "/api/orders/delivered/", models.StatusDelivered)))
	http.HandleFunc("/api/orders/payment/", handlers.CORS(handlers.UpdatePayment(db)))

	// Admin sale stats
	http.HandleFunc("/api/orders/sale", handlers.CORS(requireAdmin(handlers.GetSaleStats(db))))
	http.HandleFunc("/api/orders/salemonth", handlers.CORS(requireAdmin(handlers.GetMonthlySaleStats(db))))
	http.HandleFunc("/api/orders/saleannual", handlers.CORS(requireAdmin(handlers.GetAnnualSaleStats(db))))

	// Profile
	http.HandleFunc("/api/user/me", handlers.CORS(handlers.JWTMiddleware(cfg.JWTSecret, handlers.UserMeHandler(db))))

	// Realtime order feed for the admin dashboard
	wsHandler := websocket.NewHandler(hub, db, cfg.JWTSecret)
	http.HandleFunc("/ws/orders", wsHandler.ServeHTTP)

	logger.Info("🚀 Server starting", zap.String("port", cfg.ServerPort))
	if err := http.ListenAndServe(":"+cfg.ServerPort, nil); err != nil {
		logger.Fatal("❌ Server stopped", zap.Error(err))
	}
}

// productsHandler routes /api/products: public list, admin create.
func productsHandler(db *sql.DB, trans *translator.Service, requireAdmin func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(db)(w, r)
		case http.MethodPost:
			requireAdmin(handlers.CreateProduct(db, trans))(w, r)
		default:
			response.Error(w, r, apperror.NewValidationError("Phương thức không được hỗ trợ"))
		}
	}
}

// productByIDHandler routes /api/products/{id}: public detail, admin update.
func productByIDHandler(db *sql.DB, trans *translator.Service, requireAdmin func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProductByID(db)(w, r)
		case http.MethodPut:
			requireAdmin(handlers.UpdateProduct(db, trans))(w, r)
		default:
			response.Error(w, r, apperror.NewValidationError("Phương thức không được hỗ trợ"))
		}
	}
}

// orderByIDHandler routes /api/orders/{id}: authenticated detail, admin delete.
func orderByIDHandler(db *sql.DB, cfg *config.Config, requireAdmin func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.JWTMiddleware(cfg.JWTSecret, handlers.GetOrderByID(db))(w, r)
		case http.MethodDelete:
			requireAdmin(handlers.DeleteOrder(db))(w, r)
		default:
			response.Error(w, r, apperror.NewValidationError("Phương thức không được hỗ trợ"))
		}
	}
}
