// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gorilla/mux"
    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/artmateapp/artmate-backend/internal/auth"
    "github.com/artmateapp/artmate-backend/internal/common/database"
    "github.com/artmateapp/artmate-backend/internal/config"
    "github.com/artmateapp/artmate-backend/internal/matching"
    "github.com/artmateapp/artmate-backend/internal/notification"
    "github.com/artmateapp/artmate-backend/internal/profile"
)

func main() {
    log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

    log.Println("========================================")
    log.Println("🚀 Starting ArtMate Matching API")
    log.Println("========================================")

    // 1. Load environment variables
    log.Println("📁 Step 1: Loading .env file...")
    if err := godotenv.Load(); err != nil {
        log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
    } else {
        log.Println("✅ .env file loaded successfully")
    }

    // 2. Load and validate configuration
    log.Println("\n📋 Step 2: Loading configuration...")
    cfg := config.Load()
    if err := cfg.Validate(); err != nil {
        log.Fatal("❌ Configuration validation failed:", err)
    }
    log.Println("✅ Configuration loaded and valid")

    // 3. Connect to PostgreSQL
    log.Println("\n🗄️  Step 3: Connecting to PostgreSQL...")
    db, err := database.NewPostgresDB(cfg.DatabaseURL)
    if err != nil {
        log.Fatal("❌ Failed to connect to PostgreSQL:", err)
    }
    defer db.Close()
    log.Println("✅ Connected to PostgreSQL successfully")

    // 4. Connect to Redis
    log.Println("\n📮 Step 4: Connecting to Redis...")
    redisClient, err := database.NewRedisClientFromURL(cfg.RedisURL)
    if err != nil {
        log.Fatal("❌ Failed to connect to Redis:", err)
    }
    defer redisClient.Close()
    log.Println("✅ Connected to Redis successfully")

    // 5. Run database migrations
    log.Println("\n🔨 Step 5: Running database migrations...")
    if err := runMigrations(db.DB); err != nil {
        log.Fatal("❌ Failed to run migrations: ", err)
    }
    log.Println("✅ Database migrations completed")

    // Root context cancelled on shutdown; background workers hang off it.
    rootCtx, cancelWorkers := context.WithCancel(context.Background())
    defer cancelWorkers()

    // 6. Initialize Notification module
    log.Println("\n🔔 Step 6: Initializing Notification module...")

    hub := notification.NewHub()
    go hub.Run()
    go hub.SubscribeUserEvents(rootCtx, redisClient)
    log.Println("   ✅ WebSocket hub started")

    var emailSender notification.EmailSender
    if cfg.EnableEmailNotifications && cfg.EmailProvider == "sendgrid" {
        emailSender = notification.NewSendGridEmailSender(cfg.SendGridAPIKey, cfg.EmailFrom)
        log.Println("   ✅ Using SendGrid for match digests")
    } else if cfg.EnableEmailNotifications {
        emailSender = notification.NewMockEmailSender()
        log.Println("   ⚠️  Using mock email sender (development mode)")
    }

    var pushSender notification.PushSender
    if cfg.EnablePushNotifications {
        fcmSender, err := notification.NewFCMPushSender(rootCtx, cfg.FirebaseCredentialsPath)
        if err != nil {
            log.Printf("   ⚠️  Warning: FCM initialization failed, push disabled: %v", err)
        } else {
            pushSender = fcmSender
            log.Println("   ✅ FCM push sender initialized")
        }
    }

    contacts := notification.NewContactRepository(db)
    gateway := notification.NewGateway(redisClient, contacts, emailSender, pushSender)
    log.Println("✅ Notification module initialized")

    // 7. Initialize Matching module
    log.Println("\n🎯 Step 7: Initializing Matching module...")

    matchingRepo := matching.NewPostgresRepository(db)
    profileProvider := profile.NewProvider(db, redisClient)
    compat := matching.NewCompatibilityModel()
    scoring := matching.NewScoringEngine(compat, profileProvider)
    prefs := matching.NewRedisPreferenceStore(redisClient)
    resultCache := matching.NewRedisResultCache(redisClient)

    processor := matching.NewQueueProcessor(redisClient, matchingRepo, resultCache, gateway, cfg.CollaboratorTimeout)
    matchingService := matching.NewService(
        matchingRepo,
        profileProvider,
        scoring,
        compat,
        prefs,
        resultCache,
        processor,
        gateway,
        matching.ServiceOptions{
            CollaboratorTimeout:    cfg.CollaboratorTimeout,
            CompatibilityThreshold: cfg.CompatibilityThreshold,
        },
    )
    processor.SetService(matchingService)

    for i := 0; i < cfg.QueueWorkers; i++ {
        go processor.Run(rootCtx)
    }
    log.Printf("   ✅ Started %d queue workers", cfg.QueueWorkers)

    sweeper := matching.NewSweeper(matchingService, cfg.SweepInterval)
    go sweeper.Start(rootCtx)
    log.Println("   ✅ Lifecycle sweeper started")

    matchingHandler := matching.NewHandler(matchingService)
    log.Println("✅ Matching module initialized")

    // 8. Setup routes
    log.Println("\n🛣️  Step 8: Setting up routes...")
    router := mux.NewRouter()

    router.HandleFunc("/health", healthCheck).Methods("GET")
    router.Handle("/metrics", promhttp.Handler()).Methods("GET")

    authMiddleware := auth.NewMiddleware(cfg.JWTSecret)
    matching.RegisterRoutes(router, matchingHandler, authMiddleware)
    log.Println("   ✅ Matching routes registered")

    if cfg.EnableRealtimeEvents {
        ws := router.PathPrefix("/ws").Subrouter()
        ws.Use(authMiddleware.Authenticate)
        ws.HandleFunc("", hub.ServeWS).Methods("GET")
        log.Println("   ✅ WebSocket route registered")
    }

    router.Use(loggingMiddleware)
    router.Use(corsMiddleware)

    // 9. Create and start HTTP server
    srv := &http.Server{
        Addr:         fmt.Sprintf(":%s", cfg.Port),
        Handler:      router,
        ReadTimeout:  15 * time.Second,
        WriteTimeout: 15 * time.Second,
        IdleTimeout:  60 * time.Second,
    }

    go func() {
        log.Println("\n========================================")
        log.Printf("🚀 Server starting on http://localhost%s", srv.Addr)
        log.Printf("🌍 Environment: %s", cfg.Environment)
        log.Println("========================================")

        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal("❌ Failed to start server:", err)
        }
    }()

    // Wait for interrupt signal
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    log.Println("\n⚠️  Shutdown signal received...")

    // Stop queue workers and sweeper before closing connections.
    cancelWorkers()

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    if err := srv.Shutdown(ctx); err != nil {
        log.Fatal("❌ Server forced to shutdown:", err)
    }

    log.Println("✅ Server exited gracefully")
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
    response := map[string]interface{}{
        "status":    "healthy",
        "timestamp": time.Now().Format(time.RFC3339),
        "uptime":    time.Since(startTime).String(),
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusOK)
    json.NewEncoder(w).Encode(response)
}

var startTime = time.Now()

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()

        log.Printf("→ %s %s from %s", r.Method, r.RequestURI, r.RemoteAddr)

        wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
        next.ServeHTTP(wrapped, r)

        duration := time.Since(start)
        log.Printf("← %s %s [%d] %v", r.Method, r.RequestURI, wrapped.statusCode, duration)
    })
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
    http.ResponseWriter
    statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
    rw.statusCode = code
    rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Access-Control-Allow-Origin", "*")
        w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

        if r.Method == "OPTIONS" {
            w.WriteHeader(http.StatusOK)
            return
        }

        next.ServeHTTP(w, r)
    })
}
