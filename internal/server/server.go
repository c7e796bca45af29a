package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/leoalfonso/WDN-optim/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	store      store.Store
	config     Config
	validate   *validator.Validate
	server     *http.Server
}

// NewServer creates a new HTTP server. The store may be nil to disable
// checkpoint persistence.
func NewServer(config Config, checkpointStore store.Store) *Server {
	return &Server{
		jobManager: NewJobManager(),
		store:      checkpointStore,
		config:     config,
		validate:   validator.New(),
	}
}

// Router builds the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/", s.handleListJobs)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetJob)
				r.Delete("/", s.handleCancelJob)
				r.Get("/result", s.handleGetJobResult)
				r.Get("/events", s.handleJobEvents)
			})
		})
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	slog.Info("Starting HTTP server", "addr", s.config.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// createJobRequest is the POST /api/v1/jobs request body. Zero values
// fall back to engine defaults.
type createJobRequest struct {
	StatusTable         string  `json:"statusTable" validate:"omitempty,filepath"`
	Mode                string  `json:"mode" validate:"omitempty,oneof=ga nsga2"`
	PopSize             int     `json:"popSize" validate:"omitempty,min=2,max=10000"`
	Generations         int     `json:"generations" validate:"omitempty,min=1,max=1000000"`
	CrossoverProb       float64 `json:"crossoverProb" validate:"omitempty,min=0,max=1"`
	MutationProb        float64 `json:"mutationProb" validate:"omitempty,max=1"`
	Crossover           string  `json:"crossover" validate:"omitempty,oneof=two-point hux"`
	Mutation            string  `json:"mutation" validate:"omitempty,oneof=bit-flip"`
	TournamentSize      int     `json:"tournamentSize" validate:"omitempty,min=2"`
	Seed                int64   `json:"seed"`
	EliminateDuplicates *bool   `json:"eliminateDuplicates"`
	Elitism             *bool   `json:"elitism"`
	OnEvalError         string  `json:"onEvalError" validate:"omitempty,oneof=penalize abort"`
	Workers             int     `json:"workers" validate:"omitempty,min=1,max=1024"`
	MaxOperations       int     `json:"maxOperations" validate:"omitempty,min=1"`
	Threshold           float64 `json:"threshold" validate:"omitempty,gt=0,lt=1"`
	HorizonSteps        int     `json:"horizonSteps" validate:"omitempty,min=1"`
	CheckpointInterval  int     `json:"checkpointInterval" validate:"omitempty,min=1"`
}

// toRunConfig converts a validated request into a run configuration.
func (req *createJobRequest) toRunConfig() RunConfig {
	config := RunConfig{
		StatusTable:        req.StatusTable,
		Mode:               req.Mode,
		PopSize:            req.PopSize,
		Generations:        req.Generations,
		CrossoverProb:      req.CrossoverProb,
		MutationProb:       req.MutationProb,
		Crossover:          req.Crossover,
		Mutation:           req.Mutation,
		TournamentSize:     req.TournamentSize,
		Seed:               req.Seed,
		OnEvalError:        req.OnEvalError,
		Workers:            req.Workers,
		MaxOperations:      req.MaxOperations,
		Threshold:          req.Threshold,
		HorizonSteps:       req.HorizonSteps,
		CheckpointInterval: req.CheckpointInterval,
	}
	if config.Mode == "" {
		config.Mode = "ga"
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	if config.MutationProb == 0 {
		config.MutationProb = -1 // 1/N default
	}
	config.EliminateDuplicates = req.EliminateDuplicates == nil || *req.EliminateDuplicates
	config.Elitism = req.Elitism == nil || *req.Elitism
	return config
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid config: %v", err), http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(req.toRunConfig())

	ctx, cancel := context.WithCancel(context.Background())
	s.jobManager.RegisterCancel(job.ID, cancel)
	go runJob(ctx, s.jobManager, s.store, job.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobManager.ListJobs()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

// handleGetJob handles GET /api/v1/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	response := map[string]interface{}{
		"id":         job.ID,
		"state":      job.State,
		"config":     job.Config,
		"generation": job.Generation,
		"best":       bestObjectives(job.Best),
		"frontSize":  len(job.Best),
		"elapsed":    elapsed.Seconds(),
		"startTime":  job.StartTime,
		"endTime":    job.EndTime,
		"error":      job.Error,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleGetJobResult handles GET /api/v1/jobs/{id}/result
func (s *Server) handleGetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if len(job.Best) == 0 {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"id":         job.ID,
		"state":      job.State,
		"mode":       job.Config.Mode,
		"generation": job.Generation,
		"solutions":  job.Best,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleCancelJob handles DELETE /api/v1/jobs/{id}
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	if _, exists := s.jobManager.GetJob(jobID); !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if !s.jobManager.CancelJob(jobID) {
		http.Error(w, "Job is not cancellable", http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
