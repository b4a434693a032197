// Package policy defines the pluggable ordering capability the scheduling
// engine ranks ready tasks with, plus the two built-in variants.
package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/felixgeelhaar/cadence/internal/planning/domain"
)

var ErrUnknownPolicy = errors.New("unknown policy")

// Policy names accepted by ByName.
const (
	NameBaseline  = "baseline"
	NameRiskAware = "risk-aware"
)

// OrderingPolicy ranks a single task given its fresh feature snapshot.
// Implementations must be pure: identical (task, features) input yields a
// bit-identical key, with no side effects or hidden state. The optional
// breakdown explains a risk-derived score and is nil for policies that do
// not score risk.
type OrderingPolicy interface {
	Name() string
	Rank(t *domain.Task, f domain.TaskFeatures) (domain.OrderingKey, *domain.RiskScoreBreakdown)
}

// Ranked pairs a task with the key its policy assigned.
type Ranked struct {
	Task      *domain.Task
	Features  domain.TaskFeatures
	Key       domain.OrderingKey
	Breakdown *domain.RiskScoreBreakdown
}

// Order ranks every task with the policy and sorts by the shared total
// order. The sort is strict weak ordering over OrderingKey.Less, so equal
// scores always resolve through the (due, priority, created-at, id)
// tie-break.
func Order(p OrderingPolicy, tasks []*domain.Task, features map[domain.TaskID]domain.TaskFeatures) []Ranked {
	ranked := make([]Ranked, 0, len(tasks))
	for _, t := range tasks {
		f := features[t.ID()]
		key, breakdown := p.Rank(t, f)
		if breakdown != nil {
			f.Risk = breakdown
		}
		ranked = append(ranked, Ranked{Task: t, Features: f, Key: key, Breakdown: breakdown})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Key.Less(ranked[j].Key) })
	return ranked
}

// ByName builds a policy from its CLI name.
func ByName(name string, weights domain.RiskWeights) (OrderingPolicy, error) {
	switch name {
	case NameBaseline:
		return NewBaseline(), nil
	case NameRiskAware:
		return NewRiskAware(weights), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
