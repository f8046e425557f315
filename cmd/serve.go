package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/audit"
	"github.com/sells-group/leadgen-cli/internal/engage"
	"github.com/sells-group/leadgen-cli/internal/insight"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/reconcile"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/places"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pipeline API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	auditor := audit.NewAuditor(
		audit.WithTimeout(time.Duration(cfg.Audit.TimeoutSecs) * time.Second),
	)
	recorder := engage.NewRecorder(st)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/leads", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		minScore, _ := strconv.Atoi(q.Get("min_score"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		leads, err := st.ListLeads(req.Context(), store.LeadFilter{
			Status:   model.LeadStatus(q.Get("status")),
			City:     q.Get("city"),
			Category: q.Get("category"),
			MinScore: minScore,
			Limit:    limit,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, leads)
	})

	r.Get("/api/picks", func(w http.ResponseWriter, req *http.Request) {
		picks, err := st.ListDailyPicks(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, picks)
	})

	r.Post("/api/discover", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Cities     []string `json:"cities"`
			Categories []string `json:"categories"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}

		discoveryCfg := cfg.Discovery
		if len(body.Cities) > 0 {
			discoveryCfg.Cities = body.Cities
		}
		if len(body.Categories) > 0 {
			discoveryCfg.Categories = body.Categories
		}

		client := places.NewClient(cfg.Places.Key,
			places.WithBaseURL(cfg.Places.BaseURL),
			places.WithPageSize(cfg.Places.PageSize),
		)
		report, err := reconcile.NewEngine(st, client, discoveryCfg).Run(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, discoverResponse(report))
	})

	r.Post("/api/audit", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.URL == "" {
			writeError(w, http.StatusBadRequest, eris.New("url is required"))
			return
		}
		writeJSON(w, http.StatusOK, auditor.Audit(req.Context(), body.URL))
	})

	r.Post("/api/leads/{id}/outcome", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Action       string `json:"action"`
			CallbackDate string `json:"callback_date"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Action == "" {
			writeError(w, http.StatusBadRequest, eris.New("action is required"))
			return
		}

		outReq := engage.OutcomeRequest{
			LeadID: chi.URLParam(req, "id"),
			Action: scorer.EngagementAction(body.Action),
		}
		if body.CallbackDate != "" {
			when, err := time.Parse("2006-01-02", body.CallbackDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, eris.New("callback_date must be YYYY-MM-DD"))
				return
			}
			outReq.CallbackDate = &when
		}

		lead, err := recorder.RecordOutcome(req.Context(), outReq)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				writeError(w, http.StatusNotFound, err)
			case !scorer.KnownAction(outReq.Action):
				writeError(w, http.StatusBadRequest, err)
			default:
				writeError(w, http.StatusInternalServerError, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, lead)
	})

	r.Get("/api/insights/{industry}", func(w http.ResponseWriter, req *http.Request) {
		summary, err := insight.Aggregate(req.Context(), st, chi.URLParam(req, "industry"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if summary == nil {
			writeJSON(w, http.StatusOK, map[string]any{"summary": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"summary":  summary,
			"rendered": summary.Render(),
		})
	})

	return r
}

type discoverReport struct {
	Searched   int      `json:"searched"`
	Found      int      `json:"found"`
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Picks      int      `json:"picks"`
	Failures   []string `json:"failures,omitempty"`
}

func discoverResponse(r *reconcile.Report) discoverReport {
	resp := discoverReport{
		Searched:   r.Searched,
		Found:      r.Found,
		Inserted:   r.Inserted,
		Duplicates: r.Duplicates,
		Picks:      r.Picks,
	}
	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, fmt.Sprintf("%s / %s: %v", f.City, f.Category, f.Err))
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
