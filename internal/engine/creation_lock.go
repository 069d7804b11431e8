package engine

import (
	"time"

	"gorm.io/gorm"

	"curvecontrol/internal/models"
)

// LockStatus is the creation-lock view for one actor.
type LockStatus struct {
	Locked    bool          `json:"locked"`
	Remaining time.Duration `json:"remaining"`
	CanTrade  bool          `json:"can_trade"`
}

// CheckCreationLock evaluates the anti-sniping window against wall-clock
// time. While the window is open only the creator may trade. The time
// comparison alone is authoritative; the stored flag is hygiene.
func CheckCreationLock(asset *models.Asset, actorID string, now time.Time) LockStatus {
	if !asset.CreationLocked || asset.CreationLockUntil == nil || !now.Before(*asset.CreationLockUntil) {
		return LockStatus{CanTrade: true}
	}
	remaining := asset.CreationLockUntil.Sub(now)
	return LockStatus{
		Locked:    true,
		Remaining: remaining,
		CanTrade:  actorID == asset.CreatorID,
	}
}

// UnlockExpiredCreationLocks clears the lock flag on assets whose window has
// elapsed. Storage hygiene only; CheckCreationLock never trusts the flag by
// itself.
func UnlockExpiredCreationLocks(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Asset{}).
		Where("creation_locked = ? AND creation_lock_until <= ?", true, now).
		Update("creation_locked", false)
	return result.RowsAffected, result.Error
}
