package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contract-review/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api", func(r chi.Router) {
			r.Post("/projects", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Name     string `json:"name"`
					Template string `json:"template"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Name == "" {
					writeError(w, http.StatusBadRequest, "name is required")
					return
				}
				var templateID string
				if body.Template != "" {
					tpl, err := env.Store.GetTemplateByName(req.Context(), body.Template)
					if err != nil {
						writeError(w, http.StatusNotFound, err.Error())
						return
					}
					templateID = tpl.ID
				}
				project, err := env.Store.CreateProject(req.Context(), body.Name, templateID)
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				writeJSON(w, http.StatusCreated, project)
			})

			r.Get("/projects", func(w http.ResponseWriter, req *http.Request) {
				projects, err := env.Store.ListProjects(req.Context())
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, projects)
			})

			r.Post("/projects/{id}/documents", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Filename string `json:"filename"`
					Text     string `json:"text"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Filename == "" {
					writeError(w, http.StatusBadRequest, "filename and text are required")
					return
				}
				doc, err := env.Service.IngestDocument(req.Context(), chi.URLParam(req, "id"), body.Filename, body.Text)
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, err.Error())
					return
				}
				writeJSON(w, http.StatusCreated, doc)
			})

			r.Get("/projects/{id}/documents", func(w http.ResponseWriter, req *http.Request) {
				docs, err := env.Store.ListDocuments(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, docs)
			})

			r.Post("/projects/{id}/extract", func(w http.ResponseWriter, req *http.Request) {
				projectID := chi.URLParam(req, "id")
				// Extraction runs in the background; poll the project
				// status for completion.
				go func() {
					if _, err := env.Service.ExtractProject(ctx, projectID); err != nil {
						zap.L().Error("background extraction failed",
							zap.String("project_id", projectID),
							zap.Error(err),
						)
					}
				}()
				writeJSON(w, http.StatusAccepted, map[string]string{
					"status":     "accepted",
					"project_id": projectID,
				})
			})

			r.Get("/projects/{id}/extractions", func(w http.ResponseWriter, req *http.Request) {
				results, err := env.Store.ListExtractions(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, results)
			})

			r.Get("/projects/{id}/diff", func(w http.ResponseWriter, req *http.Request) {
				report, err := env.Service.Diff(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, report)
			})

			r.Post("/extractions/{id}/review", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Decision string `json:"decision"`
					Value    string `json:"value"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, "invalid request body")
					return
				}
				var status model.ExtractionStatus
				switch body.Decision {
				case "confirm":
					status = model.ExtractionStatusConfirmed
				case "reject":
					status = model.ExtractionStatusRejected
				case "update":
					status = model.ExtractionStatusManualUpdated
				default:
					writeError(w, http.StatusBadRequest, "decision must be confirm, reject, or update")
					return
				}
				if err := env.Store.UpdateExtractionReview(req.Context(), chi.URLParam(req, "id"), status, body.Value); err != nil {
					writeError(w, http.StatusNotFound, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
			})

			r.Post("/extractions/{id}/annotations", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Comment string `json:"comment"`
					By      string `json:"by"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Comment == "" {
					writeError(w, http.StatusBadRequest, "comment is required")
					return
				}
				if body.By == "" {
					body.By = "reviewer"
				}
				a := &model.Annotation{
					ExtractionID: chi.URLParam(req, "id"),
					Comment:      body.Comment,
					AnnotatedBy:  body.By,
				}
				if err := env.Store.CreateAnnotation(req.Context(), a); err != nil {
					writeError(w, http.StatusUnprocessableEntity, err.Error())
					return
				}
				writeJSON(w, http.StatusCreated, a)
			})

			r.Get("/extractions/{id}/annotations", func(w http.ResponseWriter, req *http.Request) {
				annotations, err := env.Store.ListExtractionAnnotations(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, annotations)
			})

			r.Post("/projects/{id}/evaluate", func(w http.ResponseWriter, req *http.Request) {
				report, err := env.Service.EvaluateProjectReviews(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, report)
			})

			r.Get("/projects/{id}/evaluation", func(w http.ResponseWriter, req *http.Request) {
				report, err := env.Service.EvaluationReport(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, report)
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
