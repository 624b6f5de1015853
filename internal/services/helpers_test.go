package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"financemanager/internal/database"
	"financemanager/internal/repository"
)

var ctx = context.Background()

func newTestStore(db *gorm.DB) repository.Store {
	return repository.NewStore(db, database.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr[T any](v T) *T {
	return &v
}
