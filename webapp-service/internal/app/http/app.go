package httpapp

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"klyroBot/webapp-service/internal/http/handler"
	"klyroBot/webapp-service/internal/pkg/logger/sl"
)

type Config struct {
	Port    int           `env:"PORT" env-default:"8080"`
	Timeout time.Duration `env:"TIMEOUT" env-default:"60s"`
}

type App struct {
	log        *slog.Logger
	httpServer *http.Server
	port       int
}

func New(
	log *slog.Logger,
	config *Config,
	authResolver handler.Authenticator,
	userRepo handler.UserRepository,
	profileRepo handler.ProfileRepository,
) *App {
	router := http.NewServeMux()

	router.HandleFunc(
		"GET /health",
		handler.HealthHandler(),
	)

	// Дублируется под /api/ — reverse-proxy проверяет доступность по этому пути
	router.HandleFunc(
		"GET /api/health",
		handler.HealthHandler(),
	)

	router.HandleFunc(
		"POST /api/init",
		handler.InitUserHandler(log, authResolver, userRepo, profileRepo),
	)

	router.HandleFunc(
		"GET /api/profile",
		handler.GetProfileHandler(log, authResolver, profileRepo),
	)

	router.HandleFunc(
		"POST /api/profile",
		handler.SaveProfileHandler(log, authResolver, profileRepo, userRepo),
	)

	routerWithCorsHandler := corsMiddleware(router)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(config.Port),
		Handler:      routerWithCorsHandler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
	}

	return &App{log: log, httpServer: srv, port: config.Port}
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "httpapp.Run"

	a.log.With(slog.String("op", op)).
		Info("server started", slog.Int("port", a.port))

	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.log.Error("failed to start http server", sl.Err(err))
		return err
	}

	return nil
}

func (a *App) Stop() {
	const op = "httpapp.Stop"

	a.log.With(slog.String("op", op)).
		Info("stopping HTTP server", slog.Int("port", a.port))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("server closed with err", sl.Err(err))
		os.Exit(1)
	}

	a.log.Info("Gracefully stopped")
}

// Mini App открывается с web.telegram.org и из встроенных webview —
// API должен отвечать на CORS-запросы любого origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set(
				"Access-Control-Allow-Methods",
				"GET, POST, OPTIONS",
			)
			w.Header().Set(
				"Access-Control-Allow-Headers",
				"Origin, Content-Type, Accept, X-Session-Token, X-Telegram-Init-Data",
			)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
}
