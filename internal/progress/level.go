package progress

import "github.com/noah-isme/olympiad-progress-api/internal/rules"

// Level is the resolved tier for a point total.
type Level struct {
	Current      rules.LevelTier  `json:"current"`
	Next         *rules.LevelTier `json:"next,omitempty"`
	PointsToNext int              `json:"points_to_next"`
}

// ResolveLevel picks the highest tier whose threshold is met. Tiers must be
// sorted ascending and start at zero, which rules.Table.Validate guarantees.
func ResolveLevel(points int, tiers []rules.LevelTier) Level {
	if len(tiers) == 0 {
		return Level{}
	}

	index := 0
	for i := len(tiers) - 1; i >= 0; i-- {
		if tiers[i].MinPoints <= points {
			index = i
			break
		}
	}

	level := Level{Current: tiers[index]}
	if index+1 < len(tiers) {
		next := tiers[index+1]
		level.Next = &next
		level.PointsToNext = next.MinPoints - points
		if level.PointsToNext < 0 {
			level.PointsToNext = 0
		}
	}
	return level
}
