// Package selector ranks a tenant's providers against a requested task
// type, producing either the single best provider or a full ordered
// fallback chain.
package selector

import (
	"sort"

	"github.com/google/uuid"

	"ai_orchestrator/internal/models"
)

// Score computes a provider's fitness for a task:
//
//	affinity*10 + modelTier - connectionOrder*0.1
//
// Task fit dominates (x10 spread), model quality is a secondary nudge, and
// connection order is only a tie-break — its 0.1 step is guaranteed smaller
// than one model-tier increment.
func Score(p *models.Provider, task models.TaskType) float64 {
	return float64(affinity(task, p.ProviderType))*10 +
		float64(modelTier(p.Model)) -
		float64(p.ConnectionOrder)*0.1
}

// SelectBest returns the highest-scoring active provider for the task, or
// nil when no active provider exists. A single active provider
// short-circuits without scoring.
func SelectBest(providers []models.Provider, task models.TaskType) *models.Provider {
	active := activeOnly(providers)
	switch len(active) {
	case 0:
		return nil
	case 1:
		return &active[0]
	}

	best := &active[0]
	bestScore := Score(best, task)
	for i := 1; i < len(active); i++ {
		if s := Score(&active[i], task); s > bestScore {
			best = &active[i]
			bestScore = s
		}
	}
	return best
}

// BuildChain returns the ordered fallback chain for the task: all active
// providers, descending by score. When preferredID names a provider in the
// set it is moved to position 0 after scoring — an explicit preference
// always wins over the computed ranking.
func BuildChain(providers []models.Provider, task models.TaskType, preferredID uuid.UUID) []models.Provider {
	chain := activeOnly(providers)
	if len(chain) == 0 {
		return nil
	}

	if len(chain) > 1 {
		sort.SliceStable(chain, func(i, j int) bool {
			return Score(&chain[i], task) > Score(&chain[j], task)
		})
	}

	if preferredID != uuid.Nil {
		for i := range chain {
			if chain[i].ID == preferredID {
				preferred := chain[i]
				copy(chain[1:i+1], chain[:i])
				chain[0] = preferred
				break
			}
		}
	}

	return chain
}

func activeOnly(providers []models.Provider) []models.Provider {
	out := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}
