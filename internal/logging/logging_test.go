package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))
	return db
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestMultiHandlerFansOutByLevel(t *testing.T) {
	db := newTestDB(t)
	dbHandler := NewDBHandler(db, time.Hour)
	t.Cleanup(dbHandler.Stop)

	var out bytes.Buffer
	log := slog.New(NewMultiHandler(
		slog.NewJSONHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		dbHandler,
	))

	log.Info("recipe created", "recipe_id", "abc")
	log.With("request_id", "req-1").Error("upload failed",
		"error", "disk full",
		"method", "POST",
		"path", "/api/recipe/recipes/1/upload-image",
		"size", 42,
	)
	dbHandler.Flush()

	assert.Contains(t, out.String(), "recipe created")
	assert.Contains(t, out.String(), "upload failed")

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "upload failed", logs[0].Message)
	assert.Equal(t, "ERROR", logs[0].Level)
	assert.Equal(t, "req-1", logs[0].RequestID)
	assert.Equal(t, "disk full", logs[0].Error)
	assert.Equal(t, "POST", logs[0].Method)
	assert.JSONEq(t, `{"size":42}`, string(logs[0].Extra))
}

func TestDBHandlerIgnoresBelowError(t *testing.T) {
	h := NewDBHandler(newTestDB(t), time.Hour)
	t.Cleanup(h.Stop)

	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestDBHandlerStopFlushes(t *testing.T) {
	db := newTestDB(t)
	h := NewDBHandler(db, time.Hour)

	slog.New(h).Error("boom")
	h.Stop()
	h.Stop()

	var count int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPurgeOlderThan(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&[]models.SystemLog{
		{ID: uuid.New(), Timestamp: time.Now().AddDate(0, 0, -40), Level: "ERROR", Message: "old"},
		{ID: uuid.New(), Timestamp: time.Now(), Level: "ERROR", Message: "fresh"},
	}).Error)

	deleted, err := PurgeOlderThan(db, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.SystemLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Message)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandlerKeepsDeliveringAfterSinkFailure(t *testing.T) {
	var out bytes.Buffer
	h := NewMultiHandler(
		failingHandler{slog.NewJSONHandler(&bytes.Buffer{}, nil)},
		nil,
		slog.NewJSONHandler(&out, nil),
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "still logged", 0))
	assert.EqualError(t, err, "sink down")
	assert.Contains(t, out.String(), "still logged")
	assert.Same(t, h, h.WithGroup(""))
}
