package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cookingwithklar/internal/grocery"
	"cookingwithklar/internal/meal"
	"cookingwithklar/internal/metrics"
	"cookingwithklar/internal/plan"
	"cookingwithklar/internal/survey"

	"go.uber.org/zap"
)

type fakePlanService struct {
	planID        string
	generateErr   error
	getErr        error
	view          plan.View
	lastSessionID string
	lastItemID    string
	mutationErr   error
}

func (f *fakePlanService) GeneratePlan(_ context.Context, _ survey.FormData, sessionID string) (string, error) {
	f.lastSessionID = sessionID
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.planID, nil
}

func (f *fakePlanService) GetPlan(_ context.Context, _ string) (plan.View, error) {
	if f.getErr != nil {
		return plan.View{}, f.getErr
	}
	return f.view, nil
}

func (f *fakePlanService) RemoveItem(_ context.Context, itemID string) error {
	f.lastItemID = itemID
	return f.mutationErr
}

func (f *fakePlanService) DoubleItem(_ context.Context, itemID string) error {
	f.lastItemID = itemID
	return f.mutationErr
}

func (f *fakePlanService) ReplaceItem(_ context.Context, itemID string, _ survey.FormData, _ meal.Meal) error {
	f.lastItemID = itemID
	return f.mutationErr
}

func (f *fakePlanService) UpdateItem(_ context.Context, itemID string, _ plan.ItemPatch) error {
	f.lastItemID = itemID
	return f.mutationErr
}

type fakeGroceryItemStore struct {
	lastItemID string
	err        error
}

func (f *fakeGroceryItemStore) UpdateItem(_ context.Context, itemID string, _ grocery.ItemPatch) error {
	f.lastItemID = itemID
	return f.err
}

type fakeMealReader struct {
	meal meal.Meal
	err  error
}

func (f *fakeMealReader) Get(_ context.Context, _ string) (meal.Meal, error) {
	if f.err != nil {
		return meal.Meal{}, f.err
	}
	return f.meal, nil
}

type fakeUsageReader struct {
	usage    []metrics.DailyUsage
	lastDays int
}

func (f *fakeUsageReader) GetDailyUsage(days int) ([]metrics.DailyUsage, error) {
	f.lastDays = days
	return f.usage, nil
}

type serverFakes struct {
	plans     *fakePlanService
	groceries *fakeGroceryItemStore
	meals     *fakeMealReader
	usage     *fakeUsageReader
}

func newTestServerWith(f serverFakes) http.Handler {
	if f.plans == nil {
		f.plans = &fakePlanService{}
	}
	if f.groceries == nil {
		f.groceries = &fakeGroceryItemStore{}
	}
	if f.meals == nil {
		f.meals = &fakeMealReader{}
	}
	if f.usage == nil {
		f.usage = &fakeUsageReader{}
	}
	srv := New(f.plans, f.groceries, f.meals, f.usage, NewSessions("test-signing-key"), zap.NewNop())
	return srv.Router()
}

func newTestServer(plans *fakePlanService, groceries *fakeGroceryItemStore) http.Handler {
	return newTestServerWith(serverFakes{plans: plans, groceries: groceries})
}

func validFormBody() *bytes.Buffer {
	return bytes.NewBufferString(`{"people": 2, "meals": {"breakfasts": 1, "dinners": 1, "days": 7}}`)
}

func TestHandleGeneratePlan(t *testing.T) {
	plans := &fakePlanService{planID: "plan-1"}
	handler := newTestServer(plans, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/meal-plans", validFormBody())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["meal_plan_id"] != "plan-1" {
		t.Errorf("Expected meal_plan_id 'plan-1', got %q", resp["meal_plan_id"])
	}
	if plans.lastSessionID == "" {
		t.Error("Expected a minted session ID to reach the service")
	}
	if rec.Header().Get(SessionHeader) == "" {
		t.Error("Expected a session token in the response header")
	}
}

func TestHandleGeneratePlan_InvalidForm(t *testing.T) {
	plans := &fakePlanService{planID: "plan-1"}
	handler := newTestServer(plans, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/meal-plans", strings.NewReader(`{"people": 0}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid form, got %d", rec.Code)
	}
	if plans.lastSessionID != "" {
		t.Error("Expected service not to be called for an invalid form")
	}
}

func TestHandleGeneratePlan_ServiceFailure(t *testing.T) {
	plans := &fakePlanService{generateErr: errors.New("both paths failed")}
	handler := newTestServer(plans, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/meal-plans", validFormBody())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "both paths failed") {
		t.Error("Expected internal error detail not to leak to the client")
	}
}

func TestHandleGetPlan_NotFound(t *testing.T) {
	plans := &fakePlanService{getErr: plan.ErrPlanNotFound}
	handler := newTestServer(plans, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/meal-plans/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestHandleItemMutations(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"remove", http.MethodPost, "/api/items/item-1/remove", ""},
		{"double", http.MethodPost, "/api/items/item-1/double", ""},
		{"replace", http.MethodPost, "/api/items/item-1/replace", `{"form": {"people": 2}}`},
		{"replace empty body", http.MethodPost, "/api/items/item-1/replace", ""},
		{"patch", http.MethodPatch, "/api/items/item-1", `{"is_doubled": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := &fakePlanService{}
			handler := newTestServer(plans, nil)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Fatalf("Expected status 204, got %d: %s", rec.Code, rec.Body.String())
			}
			if plans.lastItemID != "item-1" {
				t.Errorf("Expected item ID 'item-1', got %q", plans.lastItemID)
			}
		})
	}
}

func TestHandleItemMutation_NotFound(t *testing.T) {
	plans := &fakePlanService{mutationErr: plan.ErrItemNotFound}
	handler := newTestServer(plans, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/items/missing/remove", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestHandleUpdateGroceryItem(t *testing.T) {
	groceries := &fakeGroceryItemStore{}
	handler := newTestServer(&fakePlanService{}, groceries)

	req := httptest.NewRequest(http.MethodPatch, "/api/grocery-items/g-1", strings.NewReader(`{"is_checked": true}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if groceries.lastItemID != "g-1" {
		t.Errorf("Expected item ID 'g-1', got %q", groceries.lastItemID)
	}
}

func TestHandleGetMeal(t *testing.T) {
	meals := &fakeMealReader{meal: meal.Meal{ID: "meal-1", Name: "Garlic Chicken"}}
	handler := newTestServerWith(serverFakes{meals: meals})

	req := httptest.NewRequest(http.MethodGet, "/api/meals/meal-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var got meal.Meal
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Name != "Garlic Chicken" {
		t.Errorf("Expected meal name 'Garlic Chicken', got %q", got.Name)
	}
}

func TestHandleGetMeal_NotFound(t *testing.T) {
	meals := &fakeMealReader{err: meal.ErrNotFound}
	handler := newTestServerWith(serverFakes{meals: meals})

	req := httptest.NewRequest(http.MethodGet, "/api/meals/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestHandleGetUsage(t *testing.T) {
	usage := &fakeUsageReader{usage: []metrics.DailyUsage{
		{Date: "2026-08-31", TotalPrompt: 1200, TotalCompletion: 800, TotalCalls: 3},
	}}
	handler := newTestServerWith(serverFakes{usage: usage})

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if usage.lastDays != 7 {
		t.Errorf("Expected default window of 7 days, got %d", usage.lastDays)
	}

	var got []metrics.DailyUsage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].TotalCalls != 3 {
		t.Errorf("Expected usage rows passed through, got %+v", got)
	}
}

func TestHandleGetUsage_InvalidDays(t *testing.T) {
	handler := newTestServerWith(serverFakes{})

	for _, days := range []string{"zero", "-1", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/usage?days="+days, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for days=%q, got %d", days, rec.Code)
		}
	}
}

func TestSessions_RoundTrip(t *testing.T) {
	sessions := NewSessions("test-signing-key")

	token, sessionID, err := sessions.Mint()
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	got, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got != sessionID {
		t.Errorf("Expected session ID %q, got %q", sessionID, got)
	}
}

func TestSessions_RejectsForeignToken(t *testing.T) {
	token, _, err := NewSessions("key-a").Mint()
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	if _, err := NewSessions("key-b").Verify(token); err == nil {
		t.Error("Expected verification to fail for a token signed with another key")
	}
}

func TestSessions_MiddlewareReplaysValidToken(t *testing.T) {
	sessions := NewSessions("test-signing-key")
	token, sessionID, err := sessions.Mint()
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	var got string
	handler := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != sessionID {
		t.Errorf("Expected session ID %q carried through, got %q", sessionID, got)
	}
	if rec.Header().Get(SessionHeader) != "" {
		t.Error("Expected no new token minted for a valid session")
	}
}

func TestSessions_MiddlewareMintsOnInvalidToken(t *testing.T) {
	sessions := NewSessions("test-signing-key")

	var got string
	handler := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got == "" {
		t.Error("Expected a fresh session ID for an invalid token")
	}
	if rec.Header().Get(SessionHeader) == "" {
		t.Error("Expected a replacement token in the response header")
	}
}
