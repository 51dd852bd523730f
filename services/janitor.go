package services

import (
	"context"
	"time"

	"github.com/feyndora/backend/metrics"
	"github.com/feyndora/backend/utils"
)

// StartQuestJanitor periodically moves users with past-week quest rows to the
// current week and deletes whatever stale rows remain.
// It is best-effort and logs failures. The returned func stops it.
func StartQuestJanitor(quests *QuestService, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runQuestJanitor(ctx, quests)
			}
		}
	}()
	return cancel
}

func runQuestJanitor(ctx context.Context, quests *QuestService) {
	weekStart := quests.clock.CurrentWeekStart()
	rolled, err := quests.RollWeek(ctx, weekStart)
	if err != nil {
		utils.Sugar.Warnf("quest janitor week rollover failed after %d users: %v", rolled, err)
	} else if rolled > 0 {
		utils.Sugar.Infof("quest janitor rolled %d users into week %s", rolled, weekStart.Format("2006-01-02"))
	}

	pruned, err := quests.PruneStaleWeeks(ctx, weekStart)
	if err != nil {
		utils.Sugar.Warnf("quest janitor prune failed: %v", err)
		return
	}
	if pruned > 0 {
		metrics.QuestRowsPruned.Add(float64(pruned))
		utils.Sugar.Infof("quest janitor pruned %d stale rows", pruned)
	}
}
