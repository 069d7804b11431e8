package main

import (
	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"

	"curvecontrol/pkg/config"
)

func main() {
	logger.SetFormatter(&logger.JSONFormatter{})
	logger.SetLevel(logger.InfoLevel)

	config.InitDB()

	c := cron.New()

	// sweep elapsed creation locks every minute; storage hygiene, the
	// time-based check in the engine stays authoritative
	if _, err := c.AddFunc("* * * * *", func() {
		if err := SweepCreationLocks(); err != nil {
			logger.Errorf("> creation lock sweep failed: %v", err)
		}
	}); err != nil {
		logger.Fatal("Failed to register creation lock sweep: ", err)
	}

	// snapshot per-asset 24h volume once a day at midnight UTC
	if _, err := c.AddFunc("0 0 * * *", func() {
		if err := RecordVolumeStats(); err != nil {
			logger.Errorf("> volume stat snapshot failed: %v", err)
		}
	}); err != nil {
		logger.Fatal("Failed to register volume stat job: ", err)
	}

	logger.Info("Schedule started")
	c.Run()
}
