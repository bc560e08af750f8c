package warnings

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"vigil/internal/trigger"
)

// Status marks how a warning reached the presentation surface.
type Status string

const (
	// StatusActive is a warning surfaced directly from the pipeline.
	StatusActive Status = "active"
	// StatusMerged is a warning synthesized from a deduplication group.
	StatusMerged Status = "merged"
)

// SubmitterFusion marks warnings produced by the fusion pipeline itself, as
// opposed to externally submitted ones replayed through the API.
const SubmitterFusion = "fusion"

// Warning is the presentation-ready output of the pipeline: one surfaced
// content warning with its playback span and provenance.
type Warning struct {
	ID          string           `json:"id"`
	Category    trigger.Category `json:"category"`
	Confidence  float64          `json:"confidence"`
	Description string           `json:"description"`
	StartTime   float64          `json:"start_time"`
	EndTime     float64          `json:"end_time"`
	SubmittedBy string           `json:"submitted_by"`
	Status      Status           `json:"status"`
	Sources     []string         `json:"sources,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

var (
	idMu      sync.Mutex
	idEntropy = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewID mints a time-sortable warning id.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}

// mergeSources unions source lists into a sorted, de-duplicated slice.
func mergeSources(lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, source := range list {
			if source != "" {
				seen[source] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	merged := make([]string, 0, len(seen))
	for source := range seen {
		merged = append(merged, source)
	}
	sort.Strings(merged)
	return merged
}
