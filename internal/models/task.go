package models

// TaskType is a coarse category of requested work, used only to bias
// provider selection. The set is closed; anything else maps to TaskDefault.
type TaskType string

const (
	TaskCoaching      TaskType = "coaching"
	TaskPlanning      TaskType = "planning"
	TaskChartInsight  TaskType = "chart_insight"
	TaskTextAnalysis  TaskType = "text_analysis"
	TaskImageSuitable TaskType = "image_suitable"
	TaskGeneral       TaskType = "general"
	TaskDefault       TaskType = "default"
)

var knownTaskTypes = map[TaskType]struct{}{
	TaskCoaching:      {},
	TaskPlanning:      {},
	TaskChartInsight:  {},
	TaskTextAnalysis:  {},
	TaskImageSuitable: {},
	TaskGeneral:       {},
	TaskDefault:       {},
}

// NormalizeTaskType maps an arbitrary task label to a known TaskType,
// falling back to TaskDefault for unknown values.
func NormalizeTaskType(s string) TaskType {
	t := TaskType(s)
	if _, ok := knownTaskTypes[t]; ok {
		return t
	}
	return TaskDefault
}
