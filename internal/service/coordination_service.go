package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
)

type roomReader interface {
	FindRoom(ctx context.Context, id string) (*models.Room, error)
	FindMember(ctx context.Context, roomID, memberID string) (*models.Member, error)
}

type requestStore interface {
	Create(ctx context.Context, request *models.CoordinationRequest) error
	FindByID(ctx context.Context, id string) (*models.CoordinationRequest, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.CoordinationRequest, error)
	ListPendingByRoom(ctx context.Context, roomID string) ([]models.CoordinationRequest, error)
	UpdateStatusVersioned(ctx context.Context, exec sqlx.ExtContext, id, status string, version int) error
	Delete(ctx context.Context, id string) error
}

type activityStore interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *models.ActivityLogEntry) error
	ListByRoom(ctx context.Context, roomID string) ([]models.ActivityLogEntry, error)
}

type memberEventStore interface {
	ListEventsByMember(ctx context.Context, roomID, memberID string) ([]models.Event, error)
	ListEventsByRoom(ctx context.Context, roomID string) ([]models.Event, error)
	UpdateEventTimeTx(ctx context.Context, exec sqlx.ExtContext, id string, start, end time.Time) error
}

type slotSearcher interface {
	Reschedules(ctx context.Context, req dto.RescheduleTimeRequest) (*dto.RecommendationResponse, error)
}

type coordinationTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// CoordinationConfig governs the workflow.
type CoordinationConfig struct {
	MaxChainDepth int
}

// CoordinationService validates, stores and resolves asynchronous
// swap/booking requests, with cascading adjustment when an approval
// displaces a third party's slot.
type CoordinationService struct {
	cfg       CoordinationConfig
	rooms     roomReader
	requests  requestStore
	activity  activityStore
	events    memberEventStore
	searcher  slotSearcher
	tx        coordinationTxProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoordinationService wires workflow dependencies.
func NewCoordinationService(
	cfg CoordinationConfig,
	rooms roomReader,
	requests requestStore,
	activity activityStore,
	events memberEventStore,
	searcher slotSearcher,
	tx coordinationTxProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *CoordinationService {
	if cfg.MaxChainDepth <= 0 {
		cfg.MaxChainDepth = 3
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoordinationService{
		cfg:       cfg,
		rooms:     rooms,
		requests:  requests,
		activity:  activity,
		events:    events,
		searcher:  searcher,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// Create validates and stores a new request. Duplicate pending requests
// from the same requester on the identical slot (and target, where one
// is named) are rejected before creation.
func (s *CoordinationService) Create(ctx context.Context, roomID, requesterID string, req dto.CreateCoordinationRequest) (*models.CoordinationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coordination request payload")
	}
	if roomID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roomId is required")
	}
	if err := req.TimeSlot.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeSlot")
	}
	if _, err := s.rooms.FindRoom(ctx, roomID); err != nil {
		return nil, s.roomErr(err)
	}

	candidate := models.CoordinationRequest{
		RoomID:     roomID,
		Requester:  requesterID,
		TargetUser: req.TargetUser,
		Type:       req.Type,
		TimeSlot:   req.TimeSlot,
	}

	pending, err := s.requests.ListPendingByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}
	for _, existing := range pending {
		if existing.Requester != requesterID {
			continue
		}
		if !existing.SameSlot(candidate) {
			continue
		}
		// Targeted types must also match the counterpart; a target-less
		// booking on the identical slot is a duplicate regardless.
		if existing.Targeted() || candidate.Targeted() {
			if !equalTarget(existing.TargetUser, candidate.TargetUser) {
				continue
			}
		}
		return nil, appErrors.ErrDuplicateRequest
	}

	candidate.ID = uuid.NewString()
	candidate.Status = models.RequestStatusPending
	candidate.Message = req.Message
	candidate.Version = 1
	now := time.Now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	if err := s.requests.Create(ctx, &candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coordination request")
	}
	return &candidate, nil
}

// Resolve approves or rejects a pending request on behalf of the actor.
func (s *CoordinationService) Resolve(ctx context.Context, roomID, requestID, actorID string, req dto.ResolveCoordinationRequest) (*dto.ResolveCoordinationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "action must be approved or rejected")
	}

	room, err := s.rooms.FindRoom(ctx, roomID)
	if err != nil {
		return nil, s.roomErr(err)
	}
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.requestErr(err)
	}
	if request.RoomID != roomID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found in this room")
	}
	if request.Terminal() {
		return nil, appErrors.ErrAlreadyProcessed
	}
	if actorID != room.OwnerID && !(request.Targeted() && *request.TargetUser == actorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the room owner or the request target may act on this request")
	}

	switch req.Action {
	case models.RequestActionRejected:
		return s.reject(ctx, room, request, actorID)
	case models.RequestActionApproved:
		return s.approve(ctx, room, request, actorID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be approved or rejected")
	}
}

func (s *CoordinationService) reject(ctx context.Context, room *models.Room, request *models.CoordinationRequest, actorID string) (*dto.ResolveCoordinationResponse, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.requests.UpdateStatusVersioned(ctx, tx, request.ID, models.RequestStatusRejected, request.Version); err != nil {
		return nil, s.statusErr(err)
	}

	entry := s.entry(ctx, room.ID, actorID, models.ActivityActionChangeReject,
		fmt.Sprintf("rejected %s's request for %s", request.Requester, describeSlot(request.TimeSlot)), nil)
	if err = s.activity.Append(ctx, tx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append activity log")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit rejection")
	}
	return &dto.ResolveCoordinationResponse{Status: models.RequestStatusRejected, LoggedEntries: []models.ActivityLogEntry{*entry}}, nil
}

// plannedMove is a chain-adjustment relocation resolved before any
// mutation is committed.
type plannedMove struct {
	event models.Event
	start time.Time
	end   time.Time
	owner string
}

func (s *CoordinationService) approve(ctx context.Context, room *models.Room, request *models.CoordinationRequest, actorID string) (*dto.ResolveCoordinationResponse, error) {
	moves, err := s.resolveChain(ctx, room, request)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	entries := make([]models.ActivityLogEntry, 0, 2+len(moves))

	for _, move := range moves {
		if err = s.events.UpdateEventTimeTx(ctx, tx, move.event.ID, move.start, move.end); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to relocate displaced slot")
		}
		adjust := s.entry(ctx, room.ID, actorID, models.ActivityActionSlotAdjust,
			fmt.Sprintf("moved %s's slot %s - %s to %s - %s",
				move.owner,
				move.event.StartTime.Format("Mon 15:04"), move.event.EndTime.Format("15:04"),
				move.start.Format("Mon 15:04"), move.end.Format("15:04")),
			map[string]string{"eventId": move.event.ID, "memberId": move.owner})
		if err = s.activity.Append(ctx, tx, adjust); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append activity log")
		}
		entries = append(entries, *adjust)
	}

	if err = s.requests.UpdateStatusVersioned(ctx, tx, request.ID, models.RequestStatusApproved, request.Version); err != nil {
		return nil, s.statusErr(err)
	}

	approve := s.entry(ctx, room.ID, actorID, models.ActivityActionChangeApprove,
		fmt.Sprintf("approved %s for %s", describeSlot(request.TimeSlot), request.Requester), nil)
	if err = s.activity.Append(ctx, tx, approve); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append activity log")
	}
	entries = append(entries, *approve)

	swap := s.entry(ctx, room.ID, request.Requester, models.ActivityActionSlotSwap,
		s.swapDetail(ctx, room.ID, request),
		map[string]string{"approvedBy": actorID})
	if err = s.activity.Append(ctx, tx, swap); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append activity log")
	}
	entries = append(entries, *swap)

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit approval")
	}

	s.logger.Info("coordination request approved",
		zap.String("request_id", request.ID),
		zap.String("room_id", room.ID),
		zap.Int("chain_moves", len(moves)),
	)
	return &dto.ResolveCoordinationResponse{Status: models.RequestStatusApproved, LoggedEntries: entries}, nil
}

// resolveChain plans relocations for every slot of the conflicting
// member that the approved window displaces. Nothing is mutated here; a
// slot with no free alternative fails the whole approval. Relocation
// candidates are checked against every room event plus the moves
// already planned, so a planned move cannot displace a further party
// or collide with an earlier relocation; the depth cap bounds the
// cascade even if data changes under us.
func (s *CoordinationService) resolveChain(ctx context.Context, room *models.Room, request *models.CoordinationRequest) ([]plannedMove, error) {
	if request.ConflictingUserID == nil || *request.ConflictingUserID == "" {
		return nil, nil
	}

	window, err := slotToEvent(request.TimeSlot, time.Now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot anchor requested slot in time")
	}

	roomEvents, err := s.events.ListEventsByRoom(ctx, room.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room events")
	}

	displacedUser := *request.ConflictingUserID
	userEvents, err := s.events.ListEventsByMember(ctx, room.ID, displacedUser)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member events")
	}

	var moves []plannedMove
	for i := range userEvents {
		if !userEvents[i].Overlaps(window) {
			continue
		}
		if len(moves) >= s.cfg.MaxChainDepth {
			return nil, appErrors.Clone(appErrors.ErrChainAdjustment, "chain adjustment exceeded maximum depth")
		}

		// the approved window is not booked yet, so it is occupied too
		occupied := make([]models.Event, len(roomEvents), len(roomEvents)+len(moves)+1)
		copy(occupied, roomEvents)
		occupied = append(occupied, window)
		for _, move := range moves {
			occupied = append(occupied, models.Event{
				ID:        move.event.ID,
				Title:     move.event.Title,
				StartTime: move.start,
				EndTime:   move.end,
			})
		}

		resp, err := s.searcher.Reschedules(ctx, dto.RescheduleTimeRequest{
			ConflictingEvent: userEvents[i],
			ExistingEvents:   occupied,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Recommendations) == 0 {
			return nil, appErrors.ErrChainAdjustment
		}

		chosen := resp.Recommendations[0]
		moves = append(moves, plannedMove{event: userEvents[i], start: chosen.StartTime, end: chosen.EndTime, owner: displacedUser})
	}
	return moves, nil
}

// Delete removes a request: terminal requests by requester or target,
// pending requests only by their requester.
func (s *CoordinationService) Delete(ctx context.Context, roomID, requestID, actorID string) error {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return s.requestErr(err)
	}
	if request.RoomID != roomID {
		return appErrors.Clone(appErrors.ErrNotFound, "request not found in this room")
	}
	isRequester := request.Requester == actorID
	isTarget := request.Targeted() && *request.TargetUser == actorID
	if !isRequester && !isTarget {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requester or target may delete a request")
	}
	if request.Status == models.RequestStatusPending && !isRequester {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requester may cancel a pending request")
	}
	if err := s.requests.Delete(ctx, requestID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	return nil
}

// List returns a room's requests.
func (s *CoordinationService) List(ctx context.Context, roomID string) ([]models.CoordinationRequest, error) {
	if _, err := s.rooms.FindRoom(ctx, roomID); err != nil {
		return nil, s.roomErr(err)
	}
	requests, err := s.requests.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, nil
}

// Activity returns a room's audit trail, newest first.
func (s *CoordinationService) Activity(ctx context.Context, roomID string) ([]models.ActivityLogEntry, error) {
	if _, err := s.rooms.FindRoom(ctx, roomID); err != nil {
		return nil, s.roomErr(err)
	}
	entries, err := s.activity.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity log")
	}
	return entries, nil
}

func (s *CoordinationService) swapDetail(ctx context.Context, roomID string, request *models.CoordinationRequest) string {
	newSlot := describeSlot(request.TimeSlot)
	window, err := slotToEvent(request.TimeSlot, time.Now())
	if err == nil {
		events, listErr := s.events.ListEventsByMember(ctx, roomID, request.Requester)
		if listErr == nil {
			for _, event := range events {
				if event.Overlaps(window) {
					return fmt.Sprintf("swapped %s - %s for %s",
						event.StartTime.Format("Mon 15:04"), event.EndTime.Format("15:04"), newSlot)
				}
			}
		}
	}
	return fmt.Sprintf("booked %s", newSlot)
}

func (s *CoordinationService) entry(ctx context.Context, roomID, actorID, action, detail string, metadata map[string]string) *models.ActivityLogEntry {
	var meta []byte
	if len(metadata) > 0 {
		meta, _ = json.Marshal(metadata)
	}
	actorName := actorID
	if member, err := s.rooms.FindMember(ctx, roomID, actorID); err == nil && member != nil {
		actorName = member.Name
	}
	return &models.ActivityLogEntry{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		ActorID:   actorID,
		ActorName: actorName,
		Action:    action,
		Detail:    detail,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *CoordinationService) roomErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
}

func (s *CoordinationService) requestErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
}

func (s *CoordinationService) statusErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrVersionMismatch
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
}

func equalTarget(a, b *string) bool {
	av, bv := "", ""
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func describeSlot(slot models.TimeWindow) string {
	days := make([]string, 0, len(slot.Days))
	for _, d := range slot.Days {
		days = append(days, string(d))
	}
	label := strings.Join(days, ",")
	if label == "" && slot.Date != nil {
		label = *slot.Date
	}
	return fmt.Sprintf("%s %s-%s", label, slot.StartTime, slot.EndTime)
}

// slotToEvent anchors a recurring window on its explicit date, or on
// the next occurrence of its first day code from ref.
func slotToEvent(slot models.TimeWindow, ref time.Time) (models.Event, error) {
	start := slot.StartMinutes()
	end := slot.EndMinutes()
	if start < 0 || end < 0 {
		return models.Event{}, fmt.Errorf("malformed slot times %s-%s", slot.StartTime, slot.EndTime)
	}

	var anchor time.Time
	if slot.Date != nil && *slot.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", *slot.Date, ref.Location())
		if err != nil {
			return models.Event{}, fmt.Errorf("invalid slot date %q: %w", *slot.Date, err)
		}
		anchor = day
	} else {
		if len(slot.Days) == 0 {
			return models.Event{}, fmt.Errorf("slot carries neither days nor a date")
		}
		anchor = nextWeekday(ref, slot.Days[0])
	}

	startAt := anchor.Add(time.Duration(start) * time.Minute)
	return models.Event{StartTime: startAt, EndTime: anchor.Add(time.Duration(end) * time.Minute)}, nil
}

func nextWeekday(ref time.Time, day models.DayCode) time.Time {
	base := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	for i := 0; i < 7; i++ {
		candidate := base.AddDate(0, 0, i)
		if models.DayCodeForWeekday(candidate.Weekday()) == day {
			return candidate
		}
	}
	return base
}
