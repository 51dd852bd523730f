package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feyndora/backend/models"
)

func TestLogPointsAccumulates(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "ada", 0, 0)

	total, err := f.engines.Rankings.LogPoints(f.ctx, uid, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, total)
	total, err = f.engines.Rankings.LogPoints(f.ctx, uid, 30)
	require.NoError(t, err)
	assert.Equal(t, 150, total)

	var row models.DailyLearningPoint
	require.NoError(t, f.db.Where("user_id = ?", uid).First(&row).Error)
	assert.Equal(t, 150, row.Points)
	assert.EqualValues(t, 1, f.count(t, &models.DailyLearningPoint{}, ""))

	_, err = f.engines.Rankings.LogPoints(f.ctx, uid, 0)
	assert.ErrorIs(t, err, ErrInvalidPoints)
	_, err = f.engines.Rankings.LogPoints(f.ctx, 404, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLeaderboardsShareRanksOnTies(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada", 0, 0)
	bob := f.user(t, "bob", 0, 0)
	cyd := f.user(t, "cyd", 0, 0)
	dee := f.user(t, "dee", 0, 0)

	// Monday: only dee learns.
	_, err := f.engines.Rankings.LogPoints(f.ctx, dee, 900)
	require.NoError(t, err)

	f.tc.set(2024, time.June, 5)
	for uid, pts := range map[uint]int{ada: 300, bob: 500, cyd: 300} {
		_, err := f.engines.Rankings.LogPoints(f.ctx, uid, pts)
		require.NoError(t, err)
	}
	today := f.engines.Clock.Today()

	daily, err := f.engines.Rankings.Leaderboard(f.ctx, ScopeDaily, today, 10)
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.Equal(t, RankEntry{Rank: 1, UserID: bob, Username: "bob", Points: 500}, daily[0])
	assert.Equal(t, 2, daily[1].Rank)
	assert.Equal(t, ada, daily[1].UserID)
	assert.Equal(t, 2, daily[2].Rank)
	assert.Equal(t, cyd, daily[2].UserID)

	weekly, err := f.engines.Rankings.Leaderboard(f.ctx, ScopeWeekly, today, 2)
	require.NoError(t, err)
	require.Len(t, weekly, 2)
	assert.Equal(t, dee, weekly[0].UserID)
	assert.Equal(t, bob, weekly[1].UserID)

	me, err := f.engines.Rankings.UserRank(f.ctx, ScopeDaily, today, cyd)
	require.NoError(t, err)
	assert.Equal(t, 2, me.Rank)
	assert.Equal(t, 300, me.Points)

	me, err = f.engines.Rankings.UserRank(f.ctx, ScopeDaily, today, dee)
	require.NoError(t, err)
	assert.Equal(t, 0, me.Rank)

	_, err = f.engines.Rankings.Leaderboard(f.ctx, "monthly", today, 10)
	assert.ErrorIs(t, err, ErrInvalidScope)
	_, err = f.engines.Rankings.UserRank(f.ctx, ScopeWeekly, today, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
