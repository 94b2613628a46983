package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/services"
)

func TestOpportunityCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "opp-create@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	rec := httptest.NewRecorder()
	h.Create(rec, authedJSON(t, user.ID, http.MethodPost, "/opportunities", map[string]any{
		"title": "New deal",
	}))
	statusIs(t, rec, http.StatusCreated)

	var got models.Opportunity
	decodeJSON(t, rec, &got)
	assert.Equal(t, models.StatusLead, got.Status)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, 0, got.Probability)
}

func TestOpportunityCreateWonAppliesEffects(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "opp-won@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	rec := httptest.NewRecorder()
	h.Create(rec, authedJSON(t, user.ID, http.MethodPost, "/opportunities", map[string]any{
		"title":  "Walk-in win",
		"status": "closed-won",
		"value":  750.0,
	}))
	statusIs(t, rec, http.StatusCreated)

	var got models.Opportunity
	decodeJSON(t, rec, &got)
	assert.Equal(t, 100, got.Probability)
	assert.NotNil(t, got.WonDate)
}

func TestOpportunityCreateValidation(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "opp-invalid@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"status": "lead"}},
		{"bad status", map[string]any{"title": "x", "status": "archived"}},
		{"probability out of range", map[string]any{"title": "x", "probability": 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, authedJSON(t, user.ID, http.MethodPost, "/opportunities", tt.body))
			statusIs(t, rec, http.StatusBadRequest)
			assert.Contains(t, rec.Body.String(), "validation_failed")
		})
	}
}

func TestOpportunityMoveRequiresStageOrder(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "opp-move-order@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	opp := models.Opportunity{UserID: user.ID, Title: "Deal", Status: models.StatusLead}
	require.NoError(t, db.Create(&opp).Error)

	rec := httptest.NewRecorder()
	h.Move(rec, withPathID(authedJSON(t, user.ID, http.MethodPost, "/opportunities/1/move", map[string]any{
		"status": "qualified",
	}), opp.ID))
	statusIs(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "stage_order")
}

func TestOpportunityMove(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "opp-move@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	opp := models.Opportunity{UserID: user.ID, Title: "Deal", Status: models.StatusLead}
	require.NoError(t, db.Create(&opp).Error)

	rec := httptest.NewRecorder()
	h.Move(rec, withPathID(authedJSON(t, user.ID, http.MethodPost, "/opportunities/1/move", map[string]any{
		"status":      "closed-lost",
		"stage_order": 0,
		"lost_reason": "price",
	}), opp.ID))
	statusIs(t, rec, http.StatusOK)

	var got models.Opportunity
	decodeJSON(t, rec, &got)
	assert.Equal(t, models.StatusClosedLost, got.Status)
	assert.Equal(t, 0, got.Probability)
	assert.Equal(t, "price", got.LostReason)
}

func TestOpportunityMoveForeignRowIs404(t *testing.T) {
	db := newTestDB(t)
	owner := newTestUser(t, db, "opp-owner@test")
	other := newTestUser(t, db, "opp-intruder@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	opp := models.Opportunity{UserID: owner.ID, Title: "Deal", Status: models.StatusLead}
	require.NoError(t, db.Create(&opp).Error)

	rec := httptest.NewRecorder()
	h.Move(rec, withPathID(authedJSON(t, other.ID, http.MethodPost, "/opportunities/1/move", map[string]any{
		"status":      "qualified",
		"stage_order": 0,
	}), opp.ID))
	statusIs(t, rec, http.StatusNotFound)
}

func TestOpportunityListInvalidStatusFilter(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "opp-list@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	rec := httptest.NewRecorder()
	h.List(rec, authedJSON(t, user.ID, http.MethodGet, "/opportunities?status=archived", nil))
	statusIs(t, rec, http.StatusBadRequest)
}

func TestOpportunityDeleteDetachesDependents(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "opp-delete@test")
	h := NewOpportunityHandler(db, services.NewPipelineService(db, zap.NewNop()))

	opp := models.Opportunity{UserID: user.ID, Title: "Doomed deal", Status: models.StatusLead}
	require.NoError(t, db.Create(&opp).Error)
	comm := models.Communication{UserID: user.ID, Type: models.CommTypeTask, Direction: models.DirectionOutbound, OpportunityID: &opp.ID}
	require.NoError(t, db.Create(&comm).Error)

	rec := httptest.NewRecorder()
	h.Delete(rec, withPathID(authedJSON(t, user.ID, http.MethodDelete, "/opportunities/1", nil), opp.ID))
	statusIs(t, rec, http.StatusOK)

	var reloaded models.Communication
	require.NoError(t, db.First(&reloaded, comm.ID).Error)
	assert.Nil(t, reloaded.OpportunityID)
}
