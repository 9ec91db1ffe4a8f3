package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"github.com/shuma0102/LoanLink/internal/blackout"
	"github.com/shuma0102/LoanLink/internal/export"
	"github.com/shuma0102/LoanLink/internal/inventory"
	"github.com/shuma0102/LoanLink/internal/notify"
	"github.com/shuma0102/LoanLink/internal/platform/auth"
	"github.com/shuma0102/LoanLink/internal/platform/db"
	"github.com/shuma0102/LoanLink/internal/platform/settings"
	"github.com/shuma0102/LoanLink/internal/project"
	"github.com/shuma0102/LoanLink/internal/request"
)

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	// 動作モード取得
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	if err := db.Migrate(conn); err != nil {
		panic(err)
	}

	secret := []byte(cfg.Auth.JWTSecret)
	authSvc := auth.NewService(conn, secret)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminID, cfg.Auth.AdminPassword, cfg.Auth.AdminName); err != nil {
		cancel()
		panic(err)
	}
	cancel()

	settingsSvc := settings.NewService(conn)
	notifier := notify.NewWebhookNotifier(settingsSvc)

	invSvc := inventory.NewService(conn)
	blackoutSvc := blackout.NewService(conn, notifier)
	requestStore := request.NewStore(conn)
	requestSvc := request.NewService(requestStore, invSvc.Store(), blackoutSvc, notifier)
	projectSvc := project.NewService(conn)
	exportSvc := export.NewService(requestStore)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// /api/v1
	api := r.Group("/api/v1")
	auth.RegisterPublicRoutes(api, authSvc)

	// 要ログイン
	authed := api.Group("", auth.RequireAuth(secret))
	inventory.RegisterPublicRoutes(authed, invSvc)
	request.RegisterPublicRoutes(authed, requestSvc)
	project.RegisterPublicRoutes(authed, projectSvc)
	blackout.RegisterPublicRoutes(authed, blackoutSvc)

	// admin 専用
	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	auth.RegisterAdminRoutes(admin, authSvc)
	inventory.RegisterAdminRoutes(admin, invSvc)
	request.RegisterAdminRoutes(admin, requestSvc)
	project.RegisterAdminRoutes(admin, projectSvc)
	blackout.RegisterAdminRoutes(admin, blackoutSvc)
	settings.RegisterRoutes(admin, settingsSvc)
	export.RegisterAdminRoutes(admin, exportSvc)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Fatal(err)
	}
}
