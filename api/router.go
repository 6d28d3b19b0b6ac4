// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"bitwise74/account-api/db"
	"bitwise74/account-api/internal/service"
	"bitwise74/account-api/internal/store"
	"bitwise74/account-api/middleware"
	"bitwise74/account-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var cacheStore = persist.NewMemoryStore(time.Minute)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	Argon  *security.ArgonHash
	Tokens *security.TokenService
	TOTP   *security.TOTPProvisioner
	Users  *store.UserStore
	Items  *store.ItemStore
	Mail   service.Mailer
}

// NewRouter wires the full application: database, SMTP mailer,
// background cleanup and the HTTP surface
func NewRouter() (*API, error) {
	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	makeLogger()

	a := NewAPI(conn, service.NewSMTPMailer())

	cleanupEvery := time.Duration(viper.GetInt("cleanup.interval_minutes")) * time.Minute
	service.AccountCleanup(cleanupEvery, conn)

	return a, nil
}

// NewAPI builds the router against an already-open database and an
// injected mailer. Tests use this directly
func NewAPI(conn *gorm.DB, mail service.Mailer) *API {
	a := &API{
		DB:     conn,
		Argon:  security.NewArgon(),
		Tokens: security.NewTokenService([]byte(viper.GetString("jwt.secret"))),
		TOTP:   security.NewTOTPProvisioner(viper.GetString("totp.issuer")),
		Mail:   mail,
	}

	a.Users = store.NewUserStore(conn, a.Argon)
	a.Items = store.NewItemStore(conn)

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware(conn)
	superuser := middleware.NewSuperuserMiddleware()
	turnstile := middleware.NewTurnstileMiddleware()

	main := router.Group("/api", middleware.BodySizeLimiter(1<<20))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a JWT token
		main.HEAD("/validate", jwt, a.Validate)

		// POST /api/password-recovery	-> Emails a password reset token
		main.POST("/password-recovery", turnstile, a.PasswordRecovery)

		// POST /api/reset-password	-> Redeems a reset token for a new password
		main.POST("/reset-password", a.PasswordReset)

		// POST /api/test-email		-> Sends a test mail (superuser only)
		main.POST("/test-email", jwt, superuser, a.TestEmail)
	}

	users := main.Group("/users")
	{
		// GET /api/users		-> Lists all users (superuser only)
		users.GET("", jwt, superuser, cacheFor(30), a.UserList)

		// POST /api/users 		-> Registers a new user
		users.POST("", turnstile, a.UserRegister)

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		users.POST("/login", a.UserLogin)

		// POST /api/users/confirm	-> Confirms an email and enrolls 2FA
		users.POST("/confirm", a.UserConfirm)

		// POST /api/users/verify-2fa	-> Verifies a TOTP code
		users.POST("/verify-2fa", jwt, a.UserVerifyOTP)

		// GET /api/users/me		-> Returns the caller's profile
		users.GET("/me", jwt, a.UserMeFetch)

		// PATCH /api/users/me		-> Applies a sparse patch to the caller's profile
		users.PATCH("/me", jwt, a.UserMeUpdate)

		// DELETE /api/users/me		-> Deletes the caller's account and everything it owns
		users.DELETE("/me", jwt, a.UserMeDelete)
	}

	items := main.Group("/items", jwt)
	{
		// GET /api/items		-> Returns the caller's items
		items.GET("", a.ItemFetch)

		// POST /api/items		-> Creates a new item
		items.POST("", a.ItemCreate)

		// DELETE /api/items/:id	-> Deletes an item owned by the caller
		items.DELETE("/:id", a.ItemDelete)
	}

	return a
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
