package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := Connect("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, model := range models.All() {
		require.True(t, db.Migrator().HasTable(model))
	}

	// the partial unique index allows superseded rows next to one effective row
	superseded := time.Now()
	rows := []models.Submission{
		{StudentID: 1, TaskID: 1, AssignmentID: 1, Outcome: models.OutcomeIncorrect, SubmittedAt: time.Now(), SupersededAt: &superseded},
		{StudentID: 1, TaskID: 1, AssignmentID: 1, Outcome: models.OutcomeIncorrect, SubmittedAt: time.Now(), SupersededAt: &superseded},
		{StudentID: 1, TaskID: 1, AssignmentID: 1, Outcome: models.OutcomeCorrect, SubmittedAt: time.Now()},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	duplicate := models.Submission{StudentID: 1, TaskID: 1, AssignmentID: 1, Outcome: models.OutcomeCorrect, SubmittedAt: time.Now()}
	require.Error(t, db.Create(&duplicate).Error)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "dsn")
	require.Error(t, err)

	_, err = Connect("postgres", "")
	require.Error(t, err)
}

type capturedLog struct {
	lines []string
}

func (c *capturedLog) Printf(format string, args ...interface{}) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	out := &capturedLog{}
	gormLogger := newGormLogger(out)
	query := func() (string, int64) { return "SELECT * FROM submissions", 0 }

	gormLogger.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	require.Empty(t, out.lines)

	gormLogger.Trace(context.Background(), time.Now(), query, errors.New("disk I/O error"))
	require.Len(t, out.lines, 1)
	require.Contains(t, out.lines[0], "disk I/O error")
}
