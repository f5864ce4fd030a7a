package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/profile"
	"github.com/sells-group/evidence-cli/internal/store"
)

var servePort int

// profileBuilder is the part of profile.Builder the API needs.
type profileBuilder interface {
	Build(ctx context.Context, id model.Identity) (*model.CompanyProfile, profile.ProfileReport)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve saved profiles over HTTP and build new ones on request",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		env, err := initPipeline(ctx, envOptions{mode: "serve", withStore: true})
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(env.Store, env.Builder),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return eris.Wrap(err, "serve: listen")
		case <-ctx.Done():
		}

		zap.L().Info("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "serve: shutdown")
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter wires the profile API.
func newRouter(st store.Store, builder profileBuilder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := &apiHandler{store: st, builder: builder}
	r.Get("/health", h.health)
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.listProfiles)
		r.Post("/", h.createProfile)
		r.Get("/{id}", h.getProfile)
	})
	return r
}

type apiHandler struct {
	store   store.Store
	builder profileBuilder
}

type createResponse struct {
	Profile *model.CompanyProfile `json:"profile"`
	Errors  []string              `json:"errors,omitempty"`
}

func (h *apiHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) listProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ProfileFilter{Name: q.Get("name"), RunID: q.Get("run")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}

	ps, err := h.store.ListProfiles(r.Context(), f)
	if err != nil {
		zap.L().Error("api: list profiles", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list profiles failed")
		return
	}
	if ps == nil {
		ps = []model.CompanyProfile{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *apiHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.store.GetProfile(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("profile %s not found", id))
	case err != nil:
		zap.L().Error("api: get profile", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get profile failed")
	default:
		writeJSON(w, http.StatusOK, p)
	}
}

func (h *apiHandler) createProfile(w http.ResponseWriter, r *http.Request) {
	var id model.Identity
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid identity JSON")
		return
	}
	if strings.TrimSpace(id.Name()) == "" {
		writeError(w, http.StatusBadRequest, "input_name or resolved_name is required")
		return
	}
	if id.InputName == "" {
		id.InputName = id.ResolvedName
	}

	p, report := h.builder.Build(r.Context(), id)
	if err := h.store.SaveProfile(r.Context(), p); err != nil {
		zap.L().Error("api: save profile", zap.String("id", p.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save profile failed")
		return
	}

	resp := createResponse{Profile: p}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
