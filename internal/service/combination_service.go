package service

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/gatherly-api/internal/models"
)

const (
	defaultMaxCombinations = 5
	defaultMaxAttempts     = 20
)

// HasConflict reports whether two schedules collide: they share a day
// code (or the same absolute date) and their minute-of-day intervals
// overlap half-open. Symmetric by construction.
func HasConflict(a, b models.Schedule) bool {
	if !a.SharesDay(b.TimeWindow) {
		return false
	}
	return a.OverlapsClock(b.TimeWindow)
}

// randSource abstracts the shuffle source so tests can seed it.
type randSource interface {
	Shuffle(n int, swap func(i, j int))
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

// CombinationService builds pairwise conflict-free schedule subsets.
// Generation is intentionally randomized per call; callers needing
// repeatability inject a seeded source.
type CombinationService struct {
	rand   randSource
	logger *zap.Logger
}

// CombinationServiceOption configures the service.
type CombinationServiceOption func(*CombinationService)

// WithRandSource overrides the shuffle source.
func WithRandSource(src *rand.Rand) CombinationServiceOption {
	return func(s *CombinationService) {
		if src != nil {
			s.rand = &lockedRand{r: src}
		}
	}
}

// NewCombinationService constructs the generator.
func NewCombinationService(logger *zap.Logger, opts ...CombinationServiceOption) *CombinationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CombinationService{
		rand:   &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Generate shuffles the candidates uniformly and greedily accepts each
// schedule that conflicts with none already accepted.
func (s *CombinationService) Generate(schedules []models.Schedule) models.Combination {
	shuffled := make([]models.Schedule, len(schedules))
	copy(shuffled, schedules)
	s.rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var combination models.Combination
	for _, candidate := range shuffled {
		ok := true
		for _, accepted := range combination {
			if HasConflict(candidate, accepted) {
				ok = false
				break
			}
		}
		if ok {
			combination = append(combination, candidate)
		}
	}
	return combination
}

// GenerateMultiple repeats Generate up to maxAttempts times, keeping
// unique non-empty combinations until maxCombinations are collected.
// The result is sorted descending by size; the stable sort preserves
// discovery order among equal sizes. A non-empty input always yields at
// least one combination.
func (s *CombinationService) GenerateMultiple(schedules []models.Schedule, maxCombinations, maxAttempts int) []models.Combination {
	if maxCombinations <= 0 {
		maxCombinations = defaultMaxCombinations
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var combinations []models.Combination
	seen := make(map[string]bool)

	for attempt := 0; attempt < maxAttempts && len(combinations) < maxCombinations; attempt++ {
		combination := s.Generate(schedules)
		if len(combination) == 0 {
			continue
		}
		sig := combination.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		combinations = append(combinations, combination)
	}

	if len(combinations) == 0 && len(schedules) > 0 {
		if fallback := s.Generate(schedules); len(fallback) > 0 {
			combinations = append(combinations, fallback)
		}
	}

	sort.SliceStable(combinations, func(i, j int) bool {
		return len(combinations[i]) > len(combinations[j])
	})

	s.logger.Debug("combinations generated",
		zap.Int("candidates", len(schedules)),
		zap.Int("combinations", len(combinations)),
	)
	return combinations
}
