package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

// runIDLength is the number of hex characters kept from the digest.
const runIDLength = 12

// fingerprint derives the run id from a canonical encoding of the run's
// inputs. Identical inputs always yield the same id, so the trace carries
// no wall-clock or random identity.
func fingerprint(
	policyName string,
	cfg domain.PlannerConfig,
	set *domain.TaskSet,
	outcomes map[domain.TaskID]domain.TaskOutcome,
	start time.Time,
) string {
	cfg = cfg.Normalized()

	var b strings.Builder
	fmt.Fprintf(&b, "policy=%s\n", policyName)
	fmt.Fprintf(&b, "start=%s\n", start.Format("2006-01-02"))
	fmt.Fprintf(&b, "config=%d|%d|%s|%.4f|%.4f|%.4f|%.4f|%.4f|%.4f|%.4f|%t\n",
		cfg.HorizonDays,
		cfg.DailyCapacityMinutes,
		weekdayKey(cfg.WorkingDays),
		cfg.CrunchThreshold,
		cfg.Weights.DueProximity,
		cfg.Weights.Effort,
		cfg.Weights.Overrun,
		cfg.Weights.Slack,
		cfg.Weights.DependencyBlock,
		cfg.NeutralOverrunFactor,
		cfg.VerboseTrace,
	)

	for _, t := range set.Tasks() {
		deps := t.DependencyIDs()
		depKeys := make([]string, len(deps))
		for i, dep := range deps {
			depKeys[i] = string(dep)
		}
		fmt.Fprintf(&b, "task=%s|%s|%d|%s|%d|%s|%s\n",
			t.ID(),
			t.Title(),
			t.EstimatedMinutes(),
			t.DueDate().Format("2006-01-02"),
			t.Priority(),
			t.CreatedAt().Format(time.RFC3339Nano),
			strings.Join(depKeys, ","),
		)
	}

	ids := make([]string, 0, len(outcomes))
	for id := range outcomes {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		o := outcomes[domain.TaskID(id)]
		fmt.Fprintf(&b, "outcome=%s|%.6f|%s\n", id, o.OverrunFactor(), o.Note())
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:runIDLength]
}

func weekdayKey(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d", int(d))
	}
	return strings.Join(parts, ",")
}
