package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
)

// DuplicateMatch describes the closest earlier grievance from the same citizen.
type DuplicateMatch struct {
	GrievanceID string  `json:"grievance_id"`
	TicketID    string  `json:"ticket_id"`
	Similarity  float64 `json:"similarity"`
}

// DuplicateDetector flags probable repeat filings. It is advisory: a match is
// attached to the routing result and never blocks creation.
type DuplicateDetector struct {
	threshold float64
	window    time.Duration
}

// NewDuplicateDetector builds a detector. Non-positive values fall back to
// a 0.8 threshold over a 30 day window.
func NewDuplicateDetector(threshold float64, window time.Duration) *DuplicateDetector {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &DuplicateDetector{threshold: threshold, window: window}
}

// Threshold returns the similarity at or above which a match is flagged.
func (d *DuplicateDetector) Threshold() float64 {
	return d.threshold
}

// Screen compares g against the citizen's open grievances created within the
// window and returns the best match at or above the threshold. g itself is
// skipped when it is already persisted.
func (d *DuplicateDetector) Screen(ctx context.Context, grievances repository.GrievanceRepository, g *domain.Grievance, now time.Time) (*DuplicateMatch, error) {
	candidates, err := grievances.ListRecentByCitizen(ctx, g.CitizenID, now.Add(-d.window))
	if err != nil {
		return nil, err
	}

	tokens := tokenSet(g.Text())
	var best *DuplicateMatch
	for _, candidate := range candidates {
		if candidate.ID == g.ID || candidate.Status.Terminal() {
			continue
		}
		score := jaccard(tokens, tokenSet(candidate.Text()))
		if score < d.threshold {
			continue
		}
		if best == nil || score > best.Similarity {
			best = &DuplicateMatch{GrievanceID: candidate.ID, TicketID: candidate.TicketID, Similarity: score}
		}
	}
	return best, nil
}

// Similarity is the case-insensitive whitespace token set Jaccard index of
// two texts. Two empty texts score 0.
func Similarity(a, b string) float64 {
	return jaccard(tokenSet(a), tokenSet(b))
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
