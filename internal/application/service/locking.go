package service

import (
	"context"
	"time"

	"github.com/sangkips/kopi-pos/pkg/lock"
	"github.com/sirupsen/logrus"
)

const (
	lockWait = 5 * time.Second
	lockTTL  = 30 * time.Second
)

// Locker hands out named locks.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (lock.Lock, error)
}

// obtainLock takes a best-effort lock and returns its release func. When the lock
// cannot be had within lockWait the caller proceeds and relies on the database
// constraint or row lock behind it.
func obtainLock(ctx context.Context, locker Locker, log *logrus.Logger, key string) func() {
	if locker == nil {
		return func() {}
	}

	waitCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	lk, err := locker.Obtain(waitCtx, key, lockTTL)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("proceeding without lock")
		return func() {}
	}
	return func() {
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
			log.WithField("key", key).WithError(err).Debug("lock release failed")
		}
	}
}
