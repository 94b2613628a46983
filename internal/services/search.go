package services

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/models"
)

// Search entity type filters.
const (
	SearchAll            = "all"
	SearchContacts       = "contacts"
	SearchOpportunities  = "opportunities"
	SearchCommunications = "communications"
	SearchDocuments      = "documents"
)

const (
	searchDefaultLimit = 20
	searchMaxLimit     = 50
	searchPerTypeCap   = 10
)

// SearchResult is the normalized shape every matched entity is reduced to.
type SearchResult struct {
	ID       uint   `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Meta     string `json:"meta,omitempty"`
}

// SearchResponse groups the merged results. Total counts what was actually
// returned, not every match in the store.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

// SearchService fans a free-text query out across the four entity
// collections and merges the matches into one labeled result set. Every
// per-collection query is owner-filtered first; no result crosses a user
// boundary.
type SearchService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSearchService(db *gorm.DB, log *zap.Logger) *SearchService {
	return &SearchService{db: db, log: log}
}

// Search runs the fan-out. An empty query returns an empty result set
// without touching the store. A single explicit entity type gets the full
// limit; aggregating across all four caps each collection at min(limit/4, 10).
func (s *SearchService) Search(userID uint, query, typ string, limit int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	resp := &SearchResponse{Query: query, Results: []SearchResult{}}
	if query == "" {
		return resp, nil
	}

	if typ == "" {
		typ = SearchAll
	}
	switch typ {
	case SearchAll, SearchContacts, SearchOpportunities, SearchCommunications, SearchDocuments:
	default:
		return nil, NewValidationError("type", "invalid_value")
	}

	if limit <= 0 {
		limit = searchDefaultLimit
	}
	if limit > searchMaxLimit {
		limit = searchMaxLimit
	}
	perType := limit
	if typ == SearchAll {
		perType = limit / 4
		if perType > searchPerTypeCap {
			perType = searchPerTypeCap
		}
		if perType < 1 {
			perType = 1
		}
	}

	like := "%" + strings.ToLower(query) + "%"
	now := time.Now()

	if typ == SearchAll || typ == SearchContacts {
		results, err := s.searchContacts(userID, like, perType)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, results...)
	}
	if typ == SearchAll || typ == SearchOpportunities {
		results, err := s.searchOpportunities(userID, like, perType)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, results...)
	}
	if typ == SearchAll || typ == SearchCommunications {
		results, err := s.searchCommunications(userID, like, perType, now)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, results...)
	}
	if typ == SearchAll || typ == SearchDocuments {
		results, err := s.searchDocuments(userID, like, perType)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, results...)
	}

	resp.Total = len(resp.Results)
	return resp, nil
}

func (s *SearchService) searchContacts(userID uint, like string, limit int) ([]SearchResult, error) {
	var contacts []models.Contact
	err := s.db.Where("user_id = ?", userID).
		Where("lower(name) LIKE ? OR lower(email) LIKE ? OR lower(company) LIKE ? OR lower(title) LIKE ? OR lower(phone) LIKE ?",
			like, like, like, like, like).
		Order("updated_at desc").
		Limit(limit).
		Find(&contacts).Error
	if err != nil {
		s.log.Error("contact search failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("search contacts", err)
	}
	results := make([]SearchResult, 0, len(contacts))
	for _, c := range contacts {
		subtitle := c.Company
		if subtitle == "" {
			subtitle = c.Email
		}
		results = append(results, SearchResult{
			ID:       c.ID,
			Type:     SearchContacts,
			Title:    c.Name,
			Subtitle: subtitle,
		})
	}
	return results, nil
}

func (s *SearchService) searchOpportunities(userID uint, like string, limit int) ([]SearchResult, error) {
	var opps []models.Opportunity
	err := s.db.Where("user_id = ?", userID).
		Where("lower(title) LIKE ? OR lower(description) LIKE ?", like, like).
		Preload("Contact").
		Order("updated_at desc").
		Limit(limit).
		Find(&opps).Error
	if err != nil {
		s.log.Error("opportunity search failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("search opportunities", err)
	}
	results := make([]SearchResult, 0, len(opps))
	for _, o := range opps {
		subtitle := string(o.Status)
		if o.Contact != nil {
			subtitle = o.Contact.Name
		}
		meta := ""
		if o.Value != nil {
			meta = FormatCurrency(*o.Value, o.Currency)
		}
		results = append(results, SearchResult{
			ID:       o.ID,
			Type:     SearchOpportunities,
			Title:    o.Title,
			Subtitle: subtitle,
			Meta:     meta,
		})
	}
	return results, nil
}

func (s *SearchService) searchCommunications(userID uint, like string, limit int, now time.Time) ([]SearchResult, error) {
	var comms []models.Communication
	err := s.db.Where("user_id = ?", userID).
		Where("lower(subject) LIKE ? OR lower(content) LIKE ?", like, like).
		Order("updated_at desc").
		Limit(limit).
		Find(&comms).Error
	if err != nil {
		s.log.Error("communication search failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("search communications", err)
	}
	results := make([]SearchResult, 0, len(comms))
	for _, c := range comms {
		title := c.Subject
		if title == "" {
			title = string(c.Type)
		}
		when := c.CreatedAt
		if c.ScheduledAt != nil {
			when = *c.ScheduledAt
		}
		results = append(results, SearchResult{
			ID:       c.ID,
			Type:     SearchCommunications,
			Title:    title,
			Subtitle: string(c.Direction) + " " + string(c.Type),
			Meta:     FormatRelativeDate(when, now),
		})
	}
	return results, nil
}

func (s *SearchService) searchDocuments(userID uint, like string, limit int) ([]SearchResult, error) {
	var docs []models.Document
	err := s.db.Where("user_id = ?", userID).
		Where("lower(original_name) LIKE ? OR lower(stored_name) LIKE ?", like, like).
		Order("created_at desc").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		s.log.Error("document search failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, storageErr("search documents", err)
	}
	results := make([]SearchResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, SearchResult{
			ID:       d.ID,
			Type:     SearchDocuments,
			Title:    d.OriginalName,
			Subtitle: d.ContentType,
			Meta:     FormatFileSize(d.Size),
		})
	}
	return results, nil
}
