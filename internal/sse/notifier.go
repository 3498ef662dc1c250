package sse

import (
	"time"

	"github.com/GTDGit/esim_api/internal/models"
)

// SyncNotifier receives sync run stage transitions.
type SyncNotifier interface {
	NotifySyncStage(run *models.SyncRun)
}

// HubNotifier publishes stage transitions to a Hub.
type HubNotifier struct {
	hub *Hub
	now func() time.Time
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub, now: time.Now}
}

// NotifySyncStage always publishes, even with no subscribers, so the hub's
// in-flight view stays accurate.
func (n *HubNotifier) NotifySyncStage(run *models.SyncRun) {
	n.hub.Publish(n.event(run))
}

func (n *HubNotifier) event(run *models.SyncRun) SyncEvent {
	kind := EventSyncStageChanged
	if run.Stage.IsTerminal() {
		kind = EventSyncFinished
	}
	return SyncEvent{
		Event:       kind,
		RunID:       run.ID,
		Trigger:     string(run.Trigger),
		Stage:       string(run.Stage),
		Fetched:     run.Fetched,
		Skipped:     run.Skipped,
		Written:     run.Written,
		Deactivated: run.Deactivated,
		Error:       run.Error,
		Timestamp:   n.now().UTC(),
	}
}
