package service

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
)

const earthRadiusKm = 6371.0

// infiniteSlots marks an unreachable member (missing coordinates on
// either end). Such members are never selected while a located member
// remains.
const infiniteSlots = math.MaxInt32

// TravelConfig tunes the nearest-neighbor run.
type TravelConfig struct {
	AverageSpeedKmh  float64
	SlotMinutes      int
	MaxDays          int
	DayStartHour     int
	SlotSearchBudget int
}

// VisitPlanner abstracts the assignment heuristic so it can later be
// swapped for an exact routine without touching callers.
type VisitPlanner interface {
	Plan(req dto.TravelPlanRequest) (*dto.TravelPlanResponse, error)
}

// TravelService assigns visit slots across a work week using greedy
// nearest-neighbor selection over great-circle distance and the
// intersection of owner and member availability.
type TravelService struct {
	cfg       TravelConfig
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewTravelService constructs the scheduler.
func NewTravelService(cfg TravelConfig, validate *validator.Validate, logger *zap.Logger) *TravelService {
	if cfg.AverageSpeedKmh <= 0 {
		cfg.AverageSpeedKmh = 30
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 5
	}
	if cfg.DayStartHour <= 0 {
		cfg.DayStartHour = 9
	}
	if cfg.SlotSearchBudget <= 0 {
		cfg.SlotSearchBudget = 100
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TravelService{cfg: cfg, validator: validate, logger: logger}
}

// WithMetrics attaches the plan-iteration histogram.
func (s *TravelService) WithMetrics(metrics *MetricsService) *TravelService {
	s.metrics = metrics
	return s
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(a, b models.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// TravelSlots converts a leg into 30-minute slot counts, rounding up.
func (s *TravelService) TravelSlots(from, to *models.GeoPoint) int {
	if from == nil || to == nil {
		return infiniteSlots
	}
	distance := Haversine(*from, *to)
	minutes := distance / s.cfg.AverageSpeedKmh * 60
	return int(math.Ceil(minutes / float64(s.cfg.SlotMinutes)))
}

// Plan runs one scheduling pass over a room.
func (s *TravelService) Plan(req dto.TravelPlanRequest) (*dto.TravelPlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid travel plan payload")
	}
	settings := req.Settings
	if settings.ScheduleStartHour <= 0 {
		settings.ScheduleStartHour = s.cfg.DayStartHour
	}
	if settings.ScheduleEndHour <= settings.ScheduleStartHour {
		settings.ScheduleEndHour = 18
	}

	run := &travelRun{
		svc:       s,
		settings:  settings,
		owner:     req.Owner,
		unvisited: append([]models.Member(nil), req.Members...),
		satisfied: make(map[string]float64, len(req.Members)),
		startDate: req.StartDate,
	}
	for id, hours := range req.Assigned {
		run.satisfied[id] = hours
	}
	run.resetDay(0)

	for len(run.unvisited) > 0 && run.dayIndex < s.cfg.MaxDays {
		run.step()
	}

	unvisitedIDs := make([]string, 0, len(run.unvisited))
	for _, m := range run.unvisited {
		unvisitedIDs = append(unvisitedIDs, m.ID)
	}
	s.metrics.ObservePlanIterations(run.probes)
	s.logger.Info("travel plan complete",
		zap.Int("slots", len(run.slots)),
		zap.Int("slot_probes", run.probes),
		zap.Int("days_used", run.dayIndex+1),
		zap.Int("unvisited", len(unvisitedIDs)),
	)

	return &dto.TravelPlanResponse{
		TimeSlots: run.slots,
		Members:   req.Members,
		Settings:  settings,
		Unvisited: unvisitedIDs,
	}, nil
}

// travelRun carries the mutable state of one scheduling pass.
type travelRun struct {
	svc       *TravelService
	settings  models.RoomSettings
	owner     models.Member
	unvisited []models.Member
	satisfied map[string]float64
	slots     []models.AssignedSlot
	startDate time.Time

	cursor   time.Time
	location *models.GeoPoint
	dayIndex int
	probes   int
}

// resetDay moves the cursor to the configured start hour on the given
// day and puts the runner back at the owner's base.
func (r *travelRun) resetDay(day int) {
	r.dayIndex = day
	base := r.startDate.AddDate(0, 0, day)
	r.cursor = time.Date(base.Year(), base.Month(), base.Day(), r.svc.cfg.DayStartHour, 0, 0, 0, base.Location())
	r.location = r.owner.Location
}

// step handles one nearest-neighbor iteration: pick, skip-if-satisfied,
// or place travel+visit, or advance the day.
func (r *travelRun) step() {
	idx := r.nearestIndex()
	member := r.unvisited[idx]

	required := r.requiredHours(member)
	if required <= 0 {
		r.unvisited = append(r.unvisited[:idx], r.unvisited[idx+1:]...)
		return
	}

	travel := r.svc.TravelSlots(r.location, member.Location)
	if travel == infiniteSlots {
		// No coordinates on one end: nothing is known about the leg,
		// schedule without a travel block.
		travel = 0
	}

	slotMin := time.Duration(r.svc.cfg.SlotMinutes) * time.Minute
	arrival := r.cursor.Add(time.Duration(travel) * slotMin)

	visitStart, visitMinutes, found := r.findSlot(member, arrival, required)
	if !found {
		r.resetDay(r.dayIndex + 1)
		return
	}

	if travel > 0 {
		r.slots = append(r.slots, models.AssignedSlot{
			MemberID:  nil,
			Date:      r.cursor.Format("2006-01-02"),
			StartTime: r.cursor.Format("15:04"),
			EndTime:   arrival.Format("15:04"),
			Day:       models.DayCodeForWeekday(r.cursor.Weekday()),
			IsTravel:  true,
			Label:     "Travel to " + member.Name,
		})
	}

	visitEnd := visitStart.Add(time.Duration(visitMinutes) * time.Minute)
	memberID := member.ID
	r.slots = append(r.slots, models.AssignedSlot{
		MemberID:  &memberID,
		Date:      visitStart.Format("2006-01-02"),
		StartTime: visitStart.Format("15:04"),
		EndTime:   visitEnd.Format("15:04"),
		Day:       models.DayCodeForWeekday(visitStart.Weekday()),
		IsTravel:  false,
		Label:     "Visit " + member.Name,
	})

	r.satisfied[member.ID] += float64(visitMinutes) / 60
	r.cursor = visitEnd
	if member.Location != nil {
		r.location = member.Location
	}
	r.unvisited = append(r.unvisited[:idx], r.unvisited[idx+1:]...)
}

// nearestIndex selects the unvisited member with the fewest travel
// slots; ties and all-unreachable fall back to iteration order.
func (r *travelRun) nearestIndex() int {
	best := 0
	bestSlots := infiniteSlots
	for i, m := range r.unvisited {
		slots := r.svc.TravelSlots(r.location, m.Location)
		if slots < bestSlots {
			best = i
			bestSlots = slots
		}
	}
	return best
}

// requiredHours is the member's outstanding weekly commitment this run,
// carry-over included.
func (r *travelRun) requiredHours(member models.Member) float64 {
	return r.settings.MinHoursPerWeek + member.CarryOverHours - r.satisfied[member.ID]
}

// findSlot searches forward from arrival in slot-sized steps, bounded by
// the search budget, for a visit inside working hours on a weekday,
// within the owner∩member availability intersection, clear of every
// placed slot. Candidates past the cursor's day are rejected so the
// caller can advance the day and reset the base location.
func (r *travelRun) findSlot(member models.Member, arrival time.Time, requiredHours float64) (time.Time, int, bool) {
	slotMinutes := r.svc.cfg.SlotMinutes
	requiredMinutes := int(math.Ceil(requiredHours*60/float64(slotMinutes))) * slotMinutes
	dayStart := r.settings.ScheduleStartHour * 60
	dayEnd := r.settings.ScheduleEndHour * 60

	for i := 0; i < r.svc.cfg.SlotSearchBudget; i++ {
		r.probes++
		start := arrival.Add(time.Duration(i*slotMinutes) * time.Minute)
		if start.Day() != arrival.Day() || start.Month() != arrival.Month() {
			return time.Time{}, 0, false
		}
		day := models.DayCodeForWeekday(start.Weekday())
		if !day.IsWeekday() {
			return time.Time{}, 0, false
		}

		startMin := start.Hour()*60 + start.Minute()
		if startMin < dayStart || startMin+slotMinutes > dayEnd {
			continue
		}

		capEnd := r.availableUntil(member, day, startMin, dayEnd)
		if capEnd-startMin < slotMinutes {
			continue
		}

		visitMinutes := requiredMinutes
		if capEnd-startMin < visitMinutes {
			visitMinutes = capEnd - startMin
		}
		visitMinutes = visitMinutes / slotMinutes * slotMinutes
		if visitMinutes < slotMinutes {
			continue
		}
		if r.collides(start, visitMinutes) {
			continue
		}
		return start, visitMinutes, true
	}
	return time.Time{}, 0, false
}

// availableUntil returns the end (minutes of day) of the availability
// window containing startMin, clipped to working hours. A person with
// no preferred blocks at all is treated as fully available.
func (r *travelRun) availableUntil(member models.Member, day models.DayCode, startMin, dayEnd int) int {
	full := []models.MinuteRange{{Start: 0, End: 24 * 60}}

	ownerRanges := r.owner.PreferredRangesFor(day)
	if len(r.owner.PreferredBlocks) == 0 {
		ownerRanges = full
	}
	memberRanges := member.PreferredRangesFor(day)
	if len(member.PreferredBlocks) == 0 {
		memberRanges = full
	}

	for _, rng := range models.IntersectRanges(ownerRanges, memberRanges) {
		if rng.Start <= startMin && startMin < rng.End {
			if rng.End < dayEnd {
				return rng.End
			}
			return dayEnd
		}
	}
	return startMin
}

// collides checks the candidate visit against every slot already placed
// in this run.
func (r *travelRun) collides(start time.Time, visitMinutes int) bool {
	candidate := models.AssignedSlot{
		Date:      start.Format("2006-01-02"),
		StartTime: start.Format("15:04"),
		EndTime:   start.Add(time.Duration(visitMinutes) * time.Minute).Format("15:04"),
	}
	for _, placed := range r.slots {
		if candidate.OverlapsOnDay(placed) {
			return true
		}
	}
	return false
}
