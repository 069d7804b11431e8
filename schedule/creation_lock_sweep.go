package main

import (
	"time"

	logger "github.com/sirupsen/logrus"

	"curvecontrol/internal/engine"
	"curvecontrol/pkg/config"
)

// SweepCreationLocks clears the lock flag on assets whose anti-sniping
// window has elapsed
func SweepCreationLocks() error {
	cleared, err := engine.UnlockExpiredCreationLocks(config.DB, time.Now())
	if err != nil {
		return err
	}
	if cleared > 0 {
		logger.Infof("> cleared %d expired creation locks", cleared)
	}
	return nil
}
