package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cookingwithklar/internal/grocery"
	"cookingwithklar/internal/meal"
	"cookingwithklar/internal/metrics"
	"cookingwithklar/internal/plan"
	"cookingwithklar/internal/survey"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// PlanService is the plan pipeline as consumed by the HTTP layer.
type PlanService interface {
	GeneratePlan(ctx context.Context, form survey.FormData, sessionID string) (string, error)
	GetPlan(ctx context.Context, planID string) (plan.View, error)
	RemoveItem(ctx context.Context, itemID string) error
	DoubleItem(ctx context.Context, itemID string) error
	ReplaceItem(ctx context.Context, itemID string, form survey.FormData, current meal.Meal) error
	UpdateItem(ctx context.Context, itemID string, patch plan.ItemPatch) error
}

// GroceryItemStore updates user-facing grocery item flags.
type GroceryItemStore interface {
	UpdateItem(ctx context.Context, itemID string, patch grocery.ItemPatch) error
}

// MealReader reads single meals for detail views.
type MealReader interface {
	Get(ctx context.Context, id string) (meal.Meal, error)
}

// UsageReader reports completion token usage per day.
type UsageReader interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

// Server exposes the meal-planning API consumed by the web UI.
type Server struct {
	plans     PlanService
	groceries GroceryItemStore
	meals     MealReader
	usage     UsageReader
	sessions  *Sessions
	logger    *zap.Logger
}

// New creates a Server.
func New(plans PlanService, groceries GroceryItemStore, meals MealReader, usage UsageReader, sessions *Sessions, logger *zap.Logger) *Server {
	return &Server{
		plans:     plans,
		groceries: groceries,
		meals:     meals,
		usage:     usage,
		sessions:  sessions,
		logger:    logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.sessions.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/meal-plans", s.handleGeneratePlan)
		r.Get("/meal-plans/{planID}", s.handleGetPlan)
		r.Get("/meals/{mealID}", s.handleGetMeal)
		r.Patch("/items/{itemID}", s.handleUpdateItem)
		r.Post("/items/{itemID}/remove", s.handleRemoveItem)
		r.Post("/items/{itemID}/double", s.handleDoubleItem)
		r.Post("/items/{itemID}/replace", s.handleReplaceItem)
		r.Patch("/grocery-items/{itemID}", s.handleUpdateGroceryItem)
		r.Get("/usage", s.handleGetUsage)
	})
	return r
}

func (s *Server) handleGetMeal(w http.ResponseWriter, r *http.Request) {
	m, err := s.meals.Get(r.Context(), chi.URLParam(r, "mealID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	usage, err := s.usage.GetDailyUsage(days)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if usage == nil {
		usage = []metrics.DailyUsage{}
	}
	s.writeJSON(w, http.StatusOK, usage)
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var form survey.FormData
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := form.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	planID, err := s.plans.GeneratePlan(r.Context(), form, SessionID(r.Context()))
	if err != nil {
		s.logger.Error("meal plan generation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "meal plan generation failed, please try again")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"meal_plan_id": planID})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	view, err := s.plans.GetPlan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch plan.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.plans.UpdateItem(r.Context(), chi.URLParam(r, "itemID"), patch); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := s.plans.RemoveItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDoubleItem(w http.ResponseWriter, r *http.Request) {
	if err := s.plans.DoubleItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Form        survey.FormData `json:"form"`
		CurrentMeal meal.Meal       `json:"current_meal"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := s.plans.ReplaceItem(r.Context(), chi.URLParam(r, "itemID"), body.Form, body.CurrentMeal); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateGroceryItem(w http.ResponseWriter, r *http.Request) {
	var patch grocery.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.groceries.UpdateItem(r.Context(), chi.URLParam(r, "itemID"), patch); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, plan.ErrItemNotFound),
		errors.Is(err, meal.ErrNotFound),
		errors.Is(err, grocery.ErrNotFound),
		errors.Is(err, survey.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "operation failed, please try again")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
