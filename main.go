package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/Gateward/GW-Backend/internal/auth"
	"github.com/Gateward/GW-Backend/internal/authlog"
	"github.com/Gateward/GW-Backend/internal/config"
	"github.com/Gateward/GW-Backend/internal/confirm"
	"github.com/Gateward/GW-Backend/internal/db"
	"github.com/Gateward/GW-Backend/internal/middleware"
	"github.com/Gateward/GW-Backend/internal/session"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	auth.Init()
	session.Init()
	confirm.Init()

	clock := clockwork.NewRealClock()
	audit := authlog.New(db.DB, clock, 1024)
	defer audit.Close()

	sessions := session.New(db.DB, session.FromConfig(cfg.Session), clock)
	confirms := confirm.NewService(db.DB, clock, confirm.LogSender{}, cfg.Confirm.Retention.Std())

	authSvc, err := auth.NewService(db.DB, cfg, clock, sessions, audit)
	if err != nil {
		log.Fatal("Failed to initialize auth service: ", err)
	}

	// Background maintenance: stale confirmations and hard-expired sessions
	// are purged off the request path.
	c := cron.New()
	_, err = c.AddFunc(cfg.Confirm.PurgeSchedule, func() {
		if n, err := confirms.Purge(); err != nil {
			log.Printf("[confirm] purge failed: %v", err)
		} else if n > 0 {
			log.Printf("[confirm] purged %d stale confirmation(s)", n)
		}
		if n, err := sessions.PurgeHardExpired(); err != nil {
			log.Printf("[session] purge failed: %v", err)
		} else if n > 0 {
			log.Printf("[session] purged %d hard-expired session(s)", n)
		}
	})
	if err != nil {
		log.Fatal("Invalid purge schedule: ", err)
	}
	c.Start()
	defer c.Stop()

	authHandlers := auth.NewHandlers(authSvc, sessions, confirms, cfg)
	defer authHandlers.Close()
	sessionHandlers := session.NewHandlers(sessions)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", authHandlers.SetupRoutes())
	r.Mount("/session", sessionHandlers.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatal(err)
	}
}
