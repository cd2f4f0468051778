package rules

// Default returns the built-in rule table used when no rules file is configured.
func Default() Table {
	return Table{
		Points: Points{
			PerCorrect:             10,
			PerRetryCorrect:        5,
			PerAttempt:             2,
			PerOpenEnded:           5,
			PerfectAssignmentBonus: 20,
			SpeedThresholdSeconds:  60,
		},
		Levels: []LevelTier{
			{Name: "Novice", MinPoints: 0, Color: "#94a3b8", Icon: "sprout"},
			{Name: "Learner", MinPoints: 30, Color: "#22c55e", Icon: "book-open"},
			{Name: "Solver", MinPoints: 80, Color: "#3b82f6", Icon: "puzzle"},
			{Name: "Olympian", MinPoints: 200, Color: "#a855f7", Icon: "medal"},
			{Name: "Champion", MinPoints: 500, Color: "#f59e0b", Icon: "trophy"},
		},
		Badges: []BadgeDefinition{
			{ID: "first_task", Title: "First Step", Description: "Submit your first task", Icon: "footprints", Kind: BadgeFirstAttempt},
			{ID: "points_50", Title: "Half Century", Description: "Earn 50 points", Icon: "star", Kind: BadgePointThreshold, Threshold: 50},
			{ID: "points_100", Title: "Centurion", Description: "Earn 100 points", Icon: "stars", Kind: BadgePointThreshold, Threshold: 100},
			{ID: "points_250", Title: "Point Collector", Description: "Earn 250 points", Icon: "gem", Kind: BadgePointThreshold, Threshold: 250},
			{ID: "perfect_assignment", Title: "Flawless", Description: "Solve every task of an assignment correctly", Icon: "check-circle", Kind: BadgePerfectAssignment},
			{ID: "speed_solver", Title: "Quick Thinker", Description: "Solve a task correctly within the speed limit", Icon: "zap", Kind: BadgeSpeed},
			{ID: "streak_3", Title: "On a Roll", Description: "Practice three days in a row", Icon: "flame", Kind: BadgeStreak, Threshold: 3},
			{ID: "streak_7", Title: "Week Warrior", Description: "Practice seven days in a row", Icon: "calendar-check", Kind: BadgeStreak, Threshold: 7},
		},
		Rewards: []RewardItem{
			{ID: "choose_topic", Title: "Pick the lesson topic", Description: "Choose what we solve next lesson", Emoji: "🎯", Category: RewardCategoryLesson, Cost: 40},
			{ID: "puzzle_break", Title: "Puzzle break", Description: "Five minutes of logic puzzles during the lesson", Emoji: "🧩", Category: RewardCategoryLesson, Cost: 30},
			{ID: "sticker_pack", Title: "Sticker pack", Description: "A pack of math stickers", Emoji: "🎁", Category: RewardCategoryGift, Cost: 60},
			{ID: "skip_homework_task", Title: "Skip one homework task", Description: "Drop any single homework task", Emoji: "👑", Category: RewardCategoryPrivilege, Cost: 100},
			{ID: "lesson_dj", Title: "Lesson DJ", Description: "Choose the background music for a lesson", Emoji: "🎵", Category: RewardCategoryPrivilege, Cost: 50},
		},
	}
}
