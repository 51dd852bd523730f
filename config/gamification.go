package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Card rarities, from most to least common.
const (
	RarityCommon = "common"
	RarityRare   = "rare"
	RarityEpic   = "epic"
)

// Draw types accepted by the gacha.
const (
	DrawNormal  = "normal"
	DrawPremium = "premium"
)

// Metrics a weekly quest can measure.
const (
	MetricCompletedCoursesThisWeek = "completed_courses_week"
	MetricLearningPointsThisWeek   = "learning_points_week"
	MetricWeeklyStreak             = "weekly_streak"
)

// Metrics an achievement can measure.
const (
	MetricCourseCount          = "course_count"
	MetricCompletedCourseCount = "completed_course_count"
	MetricTotalLearningPoints  = "total_learning_points"
)

// Reward is an amount of both currencies.
type Reward struct {
	Coins    int `toml:"coins" json:"coins"`
	Diamonds int `toml:"diamonds" json:"diamonds"`
}

// SigninDay is the reward for one slot of the 7-day cycle.
type SigninDay struct {
	Day      int `toml:"day"`
	Coins    int `toml:"coins"`
	Diamonds int `toml:"diamonds"`
}

type Quest struct {
	ID          int    `toml:"id" json:"id"`
	Description string `toml:"description" json:"description"`
	Metric      string `toml:"metric" json:"-"`
	Target      int    `toml:"target" json:"target"`
	Coins       int    `toml:"coins" json:"reward_coins"`
}

// Draw holds the price and rarity weights (percent) of a draw type.
type Draw struct {
	CostCoins    int `toml:"cost_coins"`
	CostDiamonds int `toml:"cost_diamonds"`
	Epic         int `toml:"epic"`
	Rare         int `toml:"rare"`
	Common       int `toml:"common"`
}

type Achievement struct {
	Name      string `toml:"name" json:"badge_name"`
	Metric    string `toml:"metric" json:"-"`
	Threshold int    `toml:"threshold" json:"threshold"`
	Coins     int    `toml:"coins" json:"reward_coins"`
	Diamonds  int    `toml:"diamonds" json:"reward_diamonds"`
}

// Gamification holds every reward and probability table. It is loaded once at boot
// and shared read-only by the engines.
type Gamification struct {
	Signin       []SigninDay     `toml:"signin"`
	Quests       []Quest         `toml:"quests"`
	Draws        map[string]Draw `toml:"draws"`
	Achievements []Achievement   `toml:"achievements"`
}

// DefaultGamification returns the built-in tables.
func DefaultGamification() *Gamification {
	return &Gamification{
		Signin: []SigninDay{
			{Day: 1, Coins: 100},
			{Day: 2, Coins: 300},
			{Day: 3, Coins: 500},
			{Day: 4, Coins: 1000},
			{Day: 5, Diamonds: 1},
			{Day: 6, Diamonds: 3},
			{Day: 7, Coins: 500, Diamonds: 5},
		},
		Quests: []Quest{
			{ID: 1, Description: "Complete 5 courses this week", Metric: MetricCompletedCoursesThisWeek, Target: 5, Coins: 1000},
			{ID: 2, Description: "Earn 1000 learning points this week", Metric: MetricLearningPointsThisWeek, Target: 1000, Coins: 1000},
			{ID: 3, Description: "Sign in 7 days in a row", Metric: MetricWeeklyStreak, Target: 7, Coins: 1000},
		},
		Draws: map[string]Draw{
			DrawNormal:  {CostCoins: 500, Epic: 5, Rare: 25, Common: 70},
			DrawPremium: {CostDiamonds: 3, Epic: 15, Rare: 35, Common: 50},
		},
		Achievements: []Achievement{
			{Name: "added a course", Metric: MetricCourseCount, Threshold: 1, Coins: 500},
			{Name: "completed a course", Metric: MetricCompletedCourseCount, Threshold: 1, Coins: 1000, Diamonds: 1},
			// The badge keeps its historical name; clients unlock it at 500 points.
			{Name: "1000 learning points", Metric: MetricTotalLearningPoints, Threshold: 500, Coins: 2000},
		},
	}
}

// LoadGamification decodes the TOML file at path over the defaults. A missing file yields the defaults.
// Sections present in the file replace the matching default section wholesale.
func LoadGamification(path string) (*Gamification, error) {
	g := DefaultGamification()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var fromFile Gamification
			if _, err := toml.DecodeFile(path, &fromFile); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
			if len(fromFile.Signin) > 0 {
				g.Signin = fromFile.Signin
			}
			if len(fromFile.Quests) > 0 {
				g.Quests = fromFile.Quests
			}
			if len(fromFile.Draws) > 0 {
				g.Draws = fromFile.Draws
			}
			if len(fromFile.Achievements) > 0 {
				g.Achievements = fromFile.Achievements
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the tables for internal consistency.
func (g *Gamification) Validate() error {
	if len(g.Signin) != 7 {
		return fmt.Errorf("signin table needs 7 days, got %d", len(g.Signin))
	}
	seenDay := map[int]bool{}
	for _, d := range g.Signin {
		if d.Day < 1 || d.Day > 7 || seenDay[d.Day] {
			return fmt.Errorf("signin table has invalid or duplicate day %d", d.Day)
		}
		if d.Coins < 0 || d.Diamonds < 0 {
			return fmt.Errorf("signin day %d has a negative reward", d.Day)
		}
		seenDay[d.Day] = true
	}

	seenQuest := map[int]bool{}
	for _, q := range g.Quests {
		if seenQuest[q.ID] {
			return fmt.Errorf("duplicate quest id %d", q.ID)
		}
		seenQuest[q.ID] = true
		switch q.Metric {
		case MetricCompletedCoursesThisWeek, MetricLearningPointsThisWeek, MetricWeeklyStreak:
		default:
			return fmt.Errorf("quest %d has unknown metric %q", q.ID, q.Metric)
		}
		if q.Target <= 0 {
			return fmt.Errorf("quest %d needs a positive target", q.ID)
		}
	}

	for _, kind := range []string{DrawNormal, DrawPremium} {
		d, ok := g.Draws[kind]
		if !ok {
			return fmt.Errorf("missing draw table %q", kind)
		}
		if d.Epic+d.Rare+d.Common != 100 {
			return fmt.Errorf("draw %q weights sum to %d, want 100", kind, d.Epic+d.Rare+d.Common)
		}
		if d.Epic < 0 || d.Rare < 0 || d.Common < 0 {
			return fmt.Errorf("draw %q has a negative weight", kind)
		}
		if d.CostCoins < 0 || d.CostDiamonds < 0 || d.CostCoins+d.CostDiamonds == 0 {
			return fmt.Errorf("draw %q needs a positive price", kind)
		}
	}

	seenBadge := map[string]bool{}
	for _, a := range g.Achievements {
		if a.Name == "" || seenBadge[a.Name] {
			return fmt.Errorf("invalid or duplicate badge name %q", a.Name)
		}
		seenBadge[a.Name] = true
		switch a.Metric {
		case MetricCourseCount, MetricCompletedCourseCount, MetricTotalLearningPoints:
		default:
			return fmt.Errorf("badge %q has unknown metric %q", a.Name, a.Metric)
		}
	}
	return nil
}

// SigninReward returns the reward for a day index of the weekly cycle.
func (g *Gamification) SigninReward(day int) Reward {
	for _, d := range g.Signin {
		if d.Day == day {
			return Reward{Coins: d.Coins, Diamonds: d.Diamonds}
		}
	}
	return Reward{}
}

// Quest looks up a quest definition by id.
func (g *Gamification) Quest(id int) (Quest, bool) {
	for _, q := range g.Quests {
		if q.ID == id {
			return q, true
		}
	}
	return Quest{}, false
}

// Draw looks up the price and weights of a draw type.
func (g *Gamification) Draw(kind string) (Draw, bool) {
	d, ok := g.Draws[kind]
	return d, ok
}

// Achievement looks up a badge rule by name.
func (g *Gamification) Achievement(name string) (Achievement, bool) {
	for _, a := range g.Achievements {
		if a.Name == name {
			return a, true
		}
	}
	return Achievement{}, false
}
