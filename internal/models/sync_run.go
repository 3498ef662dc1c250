package models

import (
	"fmt"
	"time"
)

// SyncStage is the state of a catalog sync run.
type SyncStage string

const (
	StageIdle         SyncStage = "idle"
	StageFetching     SyncStage = "fetching"
	StageTransforming SyncStage = "transforming"
	StageWriting      SyncStage = "writing"
	StageDone         SyncStage = "done"
	StageFailed       SyncStage = "failed"
)

// SyncTrigger records what started a run.
type SyncTrigger string

const (
	TriggerScheduled SyncTrigger = "scheduled"
	TriggerManual    SyncTrigger = "manual"
	TriggerWorker    SyncTrigger = "worker"
)

var stageOrder = map[SyncStage]SyncStage{
	StageIdle:         StageFetching,
	StageFetching:     StageTransforming,
	StageTransforming: StageWriting,
	StageWriting:      StageDone,
}

// IsTerminal reports whether no further transitions are possible.
func (s SyncStage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// SyncRun is one execution of fetch -> transform -> dedupe -> write.
type SyncRun struct {
	ID          string      `db:"id" json:"id"`
	Trigger     SyncTrigger `db:"trigger" json:"trigger"`
	Stage       SyncStage   `db:"stage" json:"stage"`
	Fetched     int         `db:"fetched" json:"fetched"`
	Skipped     int         `db:"skipped" json:"skipped"`
	Written     int         `db:"written" json:"written"`
	Deactivated int         `db:"deactivated" json:"deactivated"`
	Error       *string     `db:"error" json:"error,omitempty"`
	StartedAt   time.Time   `db:"started_at" json:"startedAt"`
	FinishedAt  *time.Time  `db:"finished_at" json:"finishedAt,omitempty"`
}

// Advance moves the run to next. Runs only move forward one stage at a time,
// except that any non-terminal stage may fail.
func (r *SyncRun) Advance(next SyncStage) error {
	if r.Stage.IsTerminal() {
		return fmt.Errorf("sync run %s already %s", r.ID, r.Stage)
	}
	if next != StageFailed && stageOrder[r.Stage] != next {
		return fmt.Errorf("sync run %s cannot move from %s to %s", r.ID, r.Stage, next)
	}
	r.Stage = next
	if next.IsTerminal() {
		now := time.Now()
		r.FinishedAt = &now
	}
	return nil
}

// Fail marks the run failed with reason.
func (r *SyncRun) Fail(reason string) {
	if r.Stage.IsTerminal() {
		return
	}
	_ = r.Advance(StageFailed)
	r.Error = &reason
}
