package dto

// SolveRequest asks the engine to produce a full assignment for a schedule.
type SolveRequest struct {
	ConfigID string `json:"configId" validate:"omitempty,uuid4"`
}

// PartialSolveRequest re-optimizes only the named slots, keeping every
// other assignment fixed.
type PartialSolveRequest struct {
	SlotIDs  []string `json:"slotIds" validate:"required,min=1,dive,required"`
	ConfigID string   `json:"configId" validate:"omitempty,uuid4"`
}

// ImproveRequest re-solves with one constraint's weight doubled so the
// search favors clearing that class of violation.
type ImproveRequest struct {
	Constraint string `json:"constraint" validate:"required"`
	ConfigID   string `json:"configId" validate:"omitempty,uuid4"`
}

// ScoreResponse reports a schedule's current constraint evaluation.
type ScoreResponse struct {
	HardViolations int     `json:"hardViolations"`
	SoftScore      float64 `json:"softScore"`
	Quality        float64 `json:"quality"`
	Feasible       bool    `json:"feasible"`
}

// SolveResponse returns the outcome of a synchronous solve.
type SolveResponse struct {
	ScheduleID string        `json:"scheduleId"`
	Score      ScoreResponse `json:"score"`
	Iterations int           `json:"iterations"`
	DurationMS int64         `json:"durationMs"`
}

// PinRequest pins or releases one slot's assignment.
type PinRequest struct {
	Pinned bool `json:"pinned"`
}
