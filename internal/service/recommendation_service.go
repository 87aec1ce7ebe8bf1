package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
)

// searchOffsets encodes preference order, not numeric distance: offsets
// nearer the front win ties. Minutes, later-first at each magnitude.
var searchOffsets = []int{30, -30, 60, -60, 90, -90, 120, -120, 150, -150, 180, -180}

// RecommendationConfig bounds the offset search.
type RecommendationConfig struct {
	MinHour            int
	MaxHour            int
	MaxRecommendations int
	CacheTTL           time.Duration
}

type recommendationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type eventStore interface {
	FindEvent(ctx context.Context, id string) (*models.Event, error)
	UpdateEventTime(ctx context.Context, id string, start, end time.Time) error
}

// RecommendationService searches a fixed set of time offsets for free
// replacement slots near a conflicting or pending event.
type RecommendationService struct {
	cfg       RecommendationConfig
	cache     recommendationCache
	events    eventStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewRecommendationService wires the recommendation engine.
func NewRecommendationService(cfg RecommendationConfig, cache recommendationCache, events eventStore, validate *validator.Validate, logger *zap.Logger) *RecommendationService {
	if cfg.MinHour <= 0 {
		cfg.MinHour = 8
	}
	if cfg.MaxHour <= 0 {
		cfg.MaxHour = 22
	}
	if cfg.MaxRecommendations <= 0 {
		cfg.MaxRecommendations = 3
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{cfg: cfg, cache: cache, events: events, validator: validate, logger: logger}
}

// WithMetrics attaches cache hit/miss instrumentation.
func (s *RecommendationService) WithMetrics(metrics *MetricsService) *RecommendationService {
	s.metrics = metrics
	return s
}

// Alternatives recommends free slots for a not-yet-booked event.
func (s *RecommendationService) Alternatives(ctx context.Context, req dto.AlternativeTimeRequest) (*dto.RecommendationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alternative-time payload")
	}
	anchor := models.Event{StartTime: req.PendingEvent.StartTime, EndTime: req.PendingEvent.EndTime, Title: req.PendingEvent.Title}
	if !anchor.StartTime.Before(anchor.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pendingEvent startTime must precede endTime")
	}

	key := s.cacheKey("alt", anchor, req.ExistingEvents)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	recs := s.search(anchor, req.ExistingEvents, "")
	resp := &dto.RecommendationResponse{
		Recommendations: recs,
		Message:         s.Message(recs, nil),
	}
	s.toCache(ctx, key, resp)
	return resp, nil
}

// Reschedules recommends relocation slots for an existing event. The
// event being moved is excluded from its own overlap check.
func (s *RecommendationService) Reschedules(ctx context.Context, req dto.RescheduleTimeRequest) (*dto.RecommendationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	anchor := req.ConflictingEvent
	if !anchor.StartTime.Before(anchor.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "conflictingEvent startTime must precede endTime")
	}

	key := s.cacheKey("res", anchor, req.ExistingEvents)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	recs := s.search(anchor, req.ExistingEvents, anchor.ID)
	resp := &dto.RecommendationResponse{
		Recommendations: recs,
		Message:         s.Message(recs, &anchor),
	}
	s.toCache(ctx, key, resp)
	return resp, nil
}

// search walks the offset list in declaration order, keeping candidates
// that stay inside working hours, on the anchor's calendar day, and
// clear of every existing event (excludeID skips the anchor itself).
func (s *RecommendationService) search(anchor models.Event, existing []models.Event, excludeID string) []dto.Recommendation {
	duration := time.Duration(anchor.Duration()) * time.Minute
	recommendations := make([]dto.Recommendation, 0, s.cfg.MaxRecommendations)

	for _, offset := range searchOffsets {
		if len(recommendations) >= s.cfg.MaxRecommendations {
			break
		}
		start := anchor.StartTime.Add(time.Duration(offset) * time.Minute)
		end := start.Add(duration)

		if start.Hour() < s.cfg.MinHour || start.Hour() >= s.cfg.MaxHour {
			continue
		}
		sy, sm, sd := start.Date()
		ay, am, ad := anchor.StartTime.Date()
		if sy != ay || sm != am || sd != ad {
			continue
		}

		candidate := models.Event{StartTime: start, EndTime: end}
		free := true
		for _, event := range existing {
			if excludeID != "" && event.ID == excludeID {
				continue
			}
			if candidate.Overlaps(event) {
				free = false
				break
			}
		}
		if !free {
			continue
		}

		recommendations = append(recommendations, dto.Recommendation{
			StartTime: start,
			EndTime:   end,
			Display:   fmt.Sprintf("%s %s - %s", start.Format("Mon Jan 2"), start.Format("15:04"), end.Format("15:04")),
		})
	}
	return recommendations
}

// Message renders the human-readable summary for a recommendation list.
func (s *RecommendationService) Message(recs []dto.Recommendation, conflicting *models.Event) string {
	if len(recs) == 0 {
		return "No alternative time slots are available around the requested time."
	}
	header := "The requested slot is taken. Available alternatives:"
	if conflicting != nil {
		title := conflicting.Title
		if title == "" {
			title = "the existing event"
		}
		header = fmt.Sprintf("Suggested new times for %q:", title)
	}
	msg := header
	for i, rec := range recs {
		msg += fmt.Sprintf("\n%d. %s", i+1, rec.Display)
	}
	return msg
}

// ConfirmReschedule commits a recommended slot. Re-confirming an
// already-committed slot is a no-op success.
func (s *RecommendationService) ConfirmReschedule(ctx context.Context, req dto.ConfirmRescheduleRequest) (*dto.ConfirmRescheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirm-reschedule payload")
	}
	if s.events == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "event store unavailable")
	}

	event, err := s.events.FindEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if event.StartTime.Equal(req.StartTime) && event.EndTime.Equal(req.EndTime) {
		return &dto.ConfirmRescheduleResponse{EventID: req.EventID, StartTime: req.StartTime, EndTime: req.EndTime, AlreadyApplied: true}, nil
	}

	if err := s.events.UpdateEventTime(ctx, req.EventID, req.StartTime, req.EndTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reschedule")
	}
	// cached searches computed against the old event times are stale now
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "recommend:*"); err != nil {
			s.logger.Warn("failed to invalidate recommendation cache", zap.Error(err))
		}
	}
	s.logger.Info("reschedule confirmed",
		zap.String("event_id", req.EventID),
		zap.Time("start", req.StartTime),
		zap.Time("end", req.EndTime),
	)
	return &dto.ConfirmRescheduleResponse{EventID: req.EventID, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (s *RecommendationService) cacheKey(kind string, anchor models.Event, existing []models.Event) string {
	payload, err := json.Marshal(struct {
		Anchor   models.Event
		Existing []models.Event
	}{anchor, existing})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("recommend:%s:%s", kind, hex.EncodeToString(sum[:16]))
}

func (s *RecommendationService) fromCache(ctx context.Context, key string) *dto.RecommendationResponse {
	if s.cache == nil || key == "" {
		return nil
	}
	start := time.Now()
	var resp dto.RecommendationResponse
	if err := s.cache.Get(ctx, key, &resp); err != nil {
		s.metrics.RecordCacheOperation(false, time.Since(start))
		return nil
	}
	s.metrics.RecordCacheOperation(true, time.Since(start))
	return &resp
}

func (s *RecommendationService) toCache(ctx context.Context, key string, resp *dto.RecommendationResponse) {
	if s.cache == nil || key == "" {
		return
	}
	start := time.Now()
	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache recommendations", zap.Error(err))
		return
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
}
