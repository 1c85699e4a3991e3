package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/store"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	svc           *ConnectionService
	store         *store.GormConnectionStore
	notifications *store.GormNotificationStore
	clock         *fakeClock
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, lib.AutoMigrate(db, lib.NopLogger()))

	f := &fixture{
		store:         store.NewGormConnectionStore(db, lib.NopLogger()),
		notifications: store.NewGormNotificationStore(db),
		clock:         &fakeClock{now: t0},
	}
	deps := Deps{
		Store:         f.store,
		Notifications: f.notifications,
		Clock:         f.clock.Now,
		Log:           lib.NopLogger(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc, err = NewConnectionService(deps)
	require.NoError(t, err)
	return f
}
