package main

import (
	"encoding/json"
	"fmt"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"curvecontrol/internal/engine"
	"curvecontrol/internal/models"
	"curvecontrol/pkg/config"
)

const (
	// maxDistributionRetries caps redelivery before a record is parked as
	// failed for manual review
	maxDistributionRetries = 5
)

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	msgConsumer, err := config.NewConsumer(engine.QueueFeeDistribution)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.Info("Fee distribution worker started, waiting for messages...")

	err = msgConsumer.Consume(func(msg []byte) error {
		var job engine.FeeDistributionJob
		if err := json.Unmarshal(msg, &job); err != nil {
			logrus.Errorf("Failed to unmarshal message: %v", err)
			// poison message, do not requeue forever
			return nil
		}

		if err := processDistribution(config.DB, &job); err != nil {
			logrus.WithFields(logrus.Fields{
				"distribution_id": job.DistributionID,
				"trade_id":        job.TradeID,
			}).Errorf("Distribution failed: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		logrus.Fatal("Consumer stopped: ", err)
	}
}

// processDistribution settles one fee split. Payout itself is an opaque
// external side effect; this worker owns the record lifecycle and the retry
// count. A trade is never rolled back because its fee payout failed.
func processDistribution(db *gorm.DB, job *engine.FeeDistributionJob) error {
	var dist models.FeeDistribution
	if err := db.First(&dist, job.DistributionID).Error; err != nil {
		return fmt.Errorf("load distribution: %w", err)
	}
	if dist.Status == models.FeeDistributionCompleted {
		// redelivered after a completed run, nothing to do
		return nil
	}

	if err := payOut(&dist); err != nil {
		dist.RetryCount++
		dist.LastError = err.Error()
		if dist.RetryCount >= maxDistributionRetries {
			dist.Status = models.FeeDistributionFailed
			if saveErr := db.Save(&dist).Error; saveErr != nil {
				return fmt.Errorf("park failed distribution: %w", saveErr)
			}
			logrus.WithFields(logrus.Fields{
				"distribution_id": dist.ID,
				"retry_count":     dist.RetryCount,
			}).Warn("Distribution parked as failed")
			// parked, stop redelivering
			return nil
		}
		if saveErr := db.Save(&dist).Error; saveErr != nil {
			return fmt.Errorf("save retry count: %w", saveErr)
		}
		return err
	}

	dist.Status = models.FeeDistributionCompleted
	dist.LastError = ""
	if err := db.Save(&dist).Error; err != nil {
		return fmt.Errorf("complete distribution: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"distribution_id": dist.ID,
		"trade_id":        dist.TradeID,
		"creator_fee":     dist.CreatorFee,
		"platform_fee":    dist.PlatformFee,
	}).Info("Fee distribution completed")
	return nil
}

// payOut hands the split to the external settlement layer. The transport is
// deployment-specific; the default build records the payout and succeeds.
func payOut(dist *models.FeeDistribution) error {
	logrus.WithFields(logrus.Fields{
		"creator_id":   dist.CreatorID,
		"creator_fee":  dist.CreatorFee,
		"platform_fee": dist.PlatformFee,
	}).Info("Dispatching fee payout")
	return nil
}
