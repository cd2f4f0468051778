package models

// All lists every persisted model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&Student{},
		&Assignment{},
		&Task{},
		&Submission{},
		&AwardedBadge{},
		&Redemption{},
		&ActivityLog{},
	}
}
