package services

import (
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/models"
)

// PipelineService owns the staged view of a user's opportunities and the
// derived pipeline metrics. It keeps no state between calls; the database is
// the only source of truth.
type PipelineService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPipelineService(db *gorm.DB, log *zap.Logger) *PipelineService {
	return &PipelineService{db: db, log: log}
}

// BoardFilter narrows the kanban projection. Zero values mean "no filter".
type BoardFilter struct {
	Query     string
	Status    models.OpportunityStatus
	ContactID *uint
}

// BoardColumn is one stage bucket of the kanban view.
type BoardColumn struct {
	Status        models.OpportunityStatus `json:"status"`
	Opportunities []models.Opportunity     `json:"opportunities"`
}

// Board returns the user's opportunities partitioned into the six fixed
// stage buckets. Every matching opportunity lands in exactly one bucket and
// bucket order follows the stage enumeration regardless of data order.
func (s *PipelineService) Board(userID uint, filter BoardFilter) ([]BoardColumn, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, NewValidationError("status", "invalid_value")
	}

	q := s.db.Where("user_id = ?", userID)
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("lower(title) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ContactID != nil {
		q = q.Where("contact_id = ?", *filter.ContactID)
	}

	var opps []models.Opportunity
	if err := q.Preload("Contact").
		Order("status, stage_order, updated_at desc").
		Find(&opps).Error; err != nil {
		s.log.Error("board query failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("list opportunities", err)
	}

	byStatus := make(map[models.OpportunityStatus][]models.Opportunity, len(models.PipelineStages))
	for _, o := range opps {
		byStatus[o.Status] = append(byStatus[o.Status], o)
	}
	columns := make([]BoardColumn, 0, len(models.PipelineStages))
	for _, stage := range models.PipelineStages {
		col := BoardColumn{Status: stage, Opportunities: byStatus[stage]}
		if col.Opportunities == nil {
			col.Opportunities = []models.Opportunity{}
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// MoveRequest carries a stage transition. StageOrder is always explicit: the
// caller supplies the full target position, nothing is inferred.
type MoveRequest struct {
	Status     models.OpportunityStatus
	StageOrder int
	WonDate    *time.Time
	LostReason string
}

// Move updates status and stage order atomically, applying the per-status
// side effects (probability forcing, won/lost bookkeeping).
func (s *PipelineService) Move(userID, id uint, req MoveRequest) (*models.Opportunity, error) {
	if !req.Status.Valid() {
		return nil, NewValidationError("status", "invalid_value")
	}

	var opp models.Opportunity
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&opp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr("load opportunity", err)
		}
		opp.ApplyStatusEffects(req.Status, req.WonDate, req.LostReason, time.Now())
		opp.StageOrder = req.StageOrder
		if err := tx.Save(&opp).Error; err != nil {
			return storageErr("save opportunity", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("opportunity moved",
		zap.Uint("user_id", userID),
		zap.Uint("opportunity_id", opp.ID),
		zap.String("status", string(opp.Status)),
		zap.Int("stage_order", opp.StageOrder),
	)
	return &opp, nil
}

// PipelineStats are derived from the full unfiltered snapshot of a user's
// opportunities.
type PipelineStats struct {
	TotalCount    int     `json:"total_count"`
	TotalValue    float64 `json:"total_value"`
	PipelineValue float64 `json:"pipeline_value"`
	WonValue      float64 `json:"won_value"`
	WinRate       float64 `json:"win_rate"`
	AvgValue      float64 `json:"avg_value"`
	WonCount      int     `json:"won_count"`
	LostCount     int     `json:"lost_count"`
	ActiveCount   int     `json:"active_count"`
}

// Stats computes the cross-cutting pipeline metrics. A nil monetary value
// contributes 0 to every sum; win rate is 0 when no deals have closed.
func (s *PipelineService) Stats(userID uint) (*PipelineStats, error) {
	var opps []models.Opportunity
	if err := s.db.Where("user_id = ?", userID).Find(&opps).Error; err != nil {
		s.log.Error("stats query failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("list opportunities", err)
	}

	stats := &PipelineStats{TotalCount: len(opps)}
	for _, o := range opps {
		v := o.Amount()
		stats.TotalValue += v
		switch o.Status {
		case models.StatusClosedWon:
			stats.WonCount++
			stats.WonValue += v
		case models.StatusClosedLost:
			stats.LostCount++
		default:
			stats.ActiveCount++
			stats.PipelineValue += v
		}
	}
	if closed := stats.WonCount + stats.LostCount; closed > 0 {
		stats.WinRate = round2(100 * float64(stats.WonCount) / float64(closed))
	}
	if stats.TotalCount > 0 {
		stats.AvgValue = round2(stats.TotalValue / float64(stats.TotalCount))
	}
	return stats, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
