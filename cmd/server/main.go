package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/asset"
	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/export"
	mw "github.com/inamate/sketchboard/internal/middleware"
	"github.com/inamate/sketchboard/internal/session"
	"github.com/inamate/sketchboard/internal/storage"
	"github.com/inamate/sketchboard/internal/typeface"
)

// playgroundID is a shared scratch drawing anyone may join. It opens on
// the sample scene and is never stored.
const playgroundID = "drw_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		slog.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	library, err := asset.NewLibrary(cfg.AssetDir)
	if err != nil {
		slog.Error("open asset library", "error", err)
		os.Exit(1)
	}

	// Stores with an account table also back email/password sign-in
	accounts, _ := store.(auth.Accounts)
	authService := auth.NewService(cfg.JWTSecret, accounts)
	authHandler := auth.NewHandler(authService)

	drawingService := drawing.NewService(store)
	drawingHandler := drawing.NewHandler(drawingService)

	// Document loader for the session hub
	docLoader := func(ctx context.Context, drawingID string) ([]byte, error) {
		if drawingID == playgroundID {
			return nil, nil
		}
		return drawingService.ReadDocument(ctx, drawingID)
	}

	// Document saver for the session hub
	docSaver := func(ctx context.Context, drawingID string, data []byte) error {
		if drawingID == playgroundID {
			return nil
		}
		if err := drawingService.WriteDocument(ctx, drawingID, data); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		return nil
	}

	hub := session.NewHub(session.Options{
		Load:     docLoader,
		Save:     docSaver,
		Decoder:  library,
		Measurer: typeface.Default(),
	})

	assetHandler := asset.NewHandler(library)
	exportHandler := export.NewHandler(drawingService, library, cfg.ExportWidth, cfg.ExportHeight)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Asset endpoints (public, used by the playground too)
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/drawings", drawingHandler.List).Methods("GET")
	api.HandleFunc("/drawings", drawingHandler.Create).Methods("POST")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Get).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Rename).Methods("PATCH")
	api.HandleFunc("/drawings/{drawingId}", drawingHandler.Delete).Methods("DELETE")
	api.HandleFunc("/drawings/{drawingId}/document", drawingHandler.GetDocument).Methods("GET")
	api.HandleFunc("/drawings/{drawingId}/document", drawingHandler.PutDocument).Methods("PUT")
	api.HandleFunc("/drawings/{drawingId}/export.png", exportHandler.ExportPNG).Methods("GET")
	api.HandleFunc("/assets/{id}", assetHandler.Delete).Methods("DELETE")

	// WebSocket endpoint
	r.HandleFunc("/ws/drawings/{drawingId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, drawingService, cfg.Origins())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so open drawings are saved
		slog.Info("saving open drawings...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "storage", cfg.StorageType, "accounts", authService.AccountsEnabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *session.Hub, authSvc *auth.Service, drawings *drawing.Service, origins []string) {
	drawingID := mux.Vars(r)["drawingId"]

	var userID string
	var displayName string

	if drawingID == playgroundID {
		// Anonymous user for the playground
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		token, err := auth.TokenFromRequest(r)
		if err != nil {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		user, err := authSvc.Identify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, displayName = user.ID, user.DisplayName

		// Only the owner may open a stored drawing
		if _, err := drawings.Get(r.Context(), drawingID, userID); err != nil {
			switch {
			case errors.Is(err, drawing.ErrNotFound):
				http.Error(w, "drawing not found", http.StatusNotFound)
			case errors.Is(err, drawing.ErrForbidden):
				http.Error(w, "not the drawing owner", http.StatusForbidden)
			default:
				slog.Error("websocket drawing lookup", "drawing", drawingID, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	hub.Serve(r.Context(), conn, userID, displayName, drawingID)
}
