package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BadgeKind names the predicate family a badge is evaluated with.
type BadgeKind string

const (
	BadgeFirstAttempt      BadgeKind = "first_attempt"
	BadgePointThreshold    BadgeKind = "point_threshold"
	BadgePerfectAssignment BadgeKind = "perfect_assignment"
	BadgeSpeed             BadgeKind = "speed"
	BadgeStreak            BadgeKind = "streak"
)

// RewardCategory groups shop items for display.
type RewardCategory string

const (
	RewardCategoryLesson    RewardCategory = "lesson"
	RewardCategoryGift      RewardCategory = "gift"
	RewardCategoryPrivilege RewardCategory = "privilege"
)

// Points holds the per-outcome point values.
type Points struct {
	PerCorrect             int `mapstructure:"per_correct" json:"per_correct" validate:"gte=0"`
	PerRetryCorrect        int `mapstructure:"per_retry_correct" json:"per_retry_correct" validate:"gte=0"`
	PerAttempt             int `mapstructure:"per_attempt" json:"per_attempt" validate:"gte=0"`
	PerOpenEnded           int `mapstructure:"per_open_ended" json:"per_open_ended" validate:"gte=0"`
	PerfectAssignmentBonus int `mapstructure:"perfect_assignment_bonus" json:"perfect_assignment_bonus" validate:"gte=0"`
	SpeedThresholdSeconds  int `mapstructure:"speed_threshold_seconds" json:"speed_threshold_seconds" validate:"gt=0"`
}

// LevelTier is a named level reached at MinPoints gross points.
type LevelTier struct {
	Name      string `mapstructure:"name" json:"name" validate:"required"`
	MinPoints int    `mapstructure:"min_points" json:"min_points" validate:"gte=0"`
	Color     string `mapstructure:"color" json:"color,omitempty"`
	Icon      string `mapstructure:"icon" json:"icon,omitempty"`
}

// BadgeDefinition describes a one-time achievement.
// Threshold is the point target for point_threshold badges and the run length for streak badges.
type BadgeDefinition struct {
	ID          string    `mapstructure:"id" json:"id" validate:"required"`
	Title       string    `mapstructure:"title" json:"title" validate:"required"`
	Description string    `mapstructure:"description" json:"description"`
	Icon        string    `mapstructure:"icon" json:"icon,omitempty"`
	Kind        BadgeKind `mapstructure:"kind" json:"kind" validate:"required,oneof=first_attempt point_threshold perfect_assignment speed streak"`
	Threshold   int       `mapstructure:"threshold" json:"threshold,omitempty" validate:"gte=0"`
}

// RewardItem is a shop entry purchasable with available points.
type RewardItem struct {
	ID          string         `mapstructure:"id" json:"id" validate:"required"`
	Title       string         `mapstructure:"title" json:"title" validate:"required"`
	Description string         `mapstructure:"description" json:"description"`
	Emoji       string         `mapstructure:"emoji" json:"emoji,omitempty"`
	Category    RewardCategory `mapstructure:"category" json:"category" validate:"required,oneof=lesson gift privilege"`
	Cost        int            `mapstructure:"cost" json:"cost" validate:"gt=0"`
}

// Table is the full static rule configuration consumed by the progress engine.
type Table struct {
	Points  Points            `mapstructure:"points" json:"points"`
	Levels  []LevelTier       `mapstructure:"levels" json:"levels" validate:"required,min=1,dive"`
	Badges  []BadgeDefinition `mapstructure:"badges" json:"badges" validate:"dive"`
	Rewards []RewardItem      `mapstructure:"rewards" json:"rewards" validate:"dive"`
}

// Reward looks up a reward by id.
func (t Table) Reward(id string) (RewardItem, bool) {
	for _, reward := range t.Rewards {
		if reward.ID == id {
			return reward, true
		}
	}
	return RewardItem{}, false
}

// Badge looks up a badge definition by id.
func (t Table) Badge(id string) (BadgeDefinition, bool) {
	for _, badge := range t.Badges {
		if badge.ID == id {
			return badge, true
		}
	}
	return BadgeDefinition{}, false
}

// Validate checks structural tags and the cross-field invariants the engine relies on.
// Levels are sorted ascending by MinPoints on success.
func (t *Table) Validate(validate *validator.Validate) error {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	if err := validate.Struct(t); err != nil {
		return err
	}

	sort.SliceStable(t.Levels, func(i, j int) bool {
		return t.Levels[i].MinPoints < t.Levels[j].MinPoints
	})
	if t.Levels[0].MinPoints != 0 {
		return errors.New("rules: lowest level tier must start at 0 points")
	}
	for i := 1; i < len(t.Levels); i++ {
		if t.Levels[i].MinPoints == t.Levels[i-1].MinPoints {
			return fmt.Errorf("rules: level tiers %q and %q share threshold %d", t.Levels[i-1].Name, t.Levels[i].Name, t.Levels[i].MinPoints)
		}
	}

	seen := make(map[string]struct{}, len(t.Badges))
	for _, badge := range t.Badges {
		id := strings.TrimSpace(badge.ID)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("rules: duplicate badge id %q", id)
		}
		seen[id] = struct{}{}

		switch badge.Kind {
		case BadgePointThreshold, BadgeStreak:
			if badge.Threshold <= 0 {
				return fmt.Errorf("rules: badge %q requires a positive threshold", id)
			}
		}
	}

	seen = make(map[string]struct{}, len(t.Rewards))
	for _, reward := range t.Rewards {
		id := strings.TrimSpace(reward.ID)
		if _, dup := seen[id]; dup {
			return fmt.Errorf("rules: duplicate reward id %q", id)
		}
		seen[id] = struct{}{}
	}

	return nil
}
