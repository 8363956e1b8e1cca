package selector

import "ai_orchestrator/internal/models"

// affinityTable scores how well each provider family suits each task type.
// Every family is listed for every task; a missing entry still resolves to
// defaultAffinity at lookup time so an unknown family is never completely
// unrankable.
var affinityTable = map[models.TaskType]map[models.ProviderType]int{
	models.TaskCoaching: {
		models.ProviderTypeAnthropic: 5,
		models.ProviderTypeOpenAI:    4,
		models.ProviderTypeGemini:    3,
	},
	models.TaskPlanning: {
		models.ProviderTypeAnthropic: 5,
		models.ProviderTypeOpenAI:    4,
		models.ProviderTypeGemini:    3,
	},
	models.TaskChartInsight: {
		models.ProviderTypeOpenAI:    5,
		models.ProviderTypeGemini:    4,
		models.ProviderTypeAnthropic: 3,
	},
	models.TaskTextAnalysis: {
		models.ProviderTypeAnthropic: 5,
		models.ProviderTypeOpenAI:    4,
		models.ProviderTypeGemini:    4,
	},
	models.TaskImageSuitable: {
		models.ProviderTypeGemini:    5,
		models.ProviderTypeOpenAI:    4,
		models.ProviderTypeAnthropic: 2,
	},
	models.TaskGeneral: {
		models.ProviderTypeOpenAI:    4,
		models.ProviderTypeAnthropic: 4,
		models.ProviderTypeGemini:    3,
	},
	models.TaskDefault: {
		models.ProviderTypeOpenAI:    3,
		models.ProviderTypeAnthropic: 3,
		models.ProviderTypeGemini:    3,
	},
}

// defaultAffinity applies when a task/family pair has no entry. Never zero:
// an unknown provider must still be rankable.
const defaultAffinity = 1

// affinity looks up the task/family score, normalizing unknown task types
// to the default row.
func affinity(task models.TaskType, family models.ProviderType) int {
	row, ok := affinityTable[task]
	if !ok {
		row = affinityTable[models.TaskDefault]
	}
	if score, ok := row[family]; ok {
		return score
	}
	return defaultAffinity
}

// modelTiers nudges selection toward known stronger models within a
// family. Unknown models score 0. The spread (0..3) is deliberately
// smaller than one affinity step after weighting.
var modelTiers = map[string]int{
	// OpenAI
	"gpt-4o":        3,
	"gpt-4-turbo":   2,
	"gpt-4o-mini":   1,
	"gpt-3.5-turbo": 0,
	// Anthropic
	"claude-3-opus-latest":     3,
	"claude-3-5-sonnet-latest": 3,
	"claude-3-5-haiku-latest":  1,
	"claude-3-haiku-20240307":  0,
	// Gemini
	"gemini-1.5-pro":   3,
	"gemini-2.0-flash": 2,
	"gemini-1.5-flash": 1,
}

func modelTier(model string) int {
	return modelTiers[model]
}
