package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"curvecontrol/internal/curve"
	"curvecontrol/internal/models"
)

// maxMigrationAttempts bounds retries of a failed migration so a persistent
// tolerance misconfiguration cannot be masked by blind retries.
const maxMigrationAttempts = 3

// Finding severities
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ValidationFinding is one dry-run observation. Error findings are a hard
// gate at commit time; warnings are surfaced for operator review only.
type ValidationFinding struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// MigrationPreview is the dry-run output.
type MigrationPreview struct {
	AssetID            uint                `json:"asset_id"`
	FromModel          string              `json:"from_model"`
	TargetModel        string              `json:"target_model"`
	OldPrice           decimal.Decimal     `json:"old_price"`
	OldSupply          decimal.Decimal     `json:"old_supply"`
	NewPrice           decimal.Decimal     `json:"new_price"`
	NewSupply          decimal.Decimal     `json:"new_supply"`
	PriceChangePercent decimal.Decimal     `json:"price_change_percent"`
	Findings           []ValidationFinding `json:"findings"`
}

// MigrationResult is the commit outcome.
type MigrationResult struct {
	MigrationID uint            `json:"migration_id"`
	Phase       string          `json:"phase"`
	NewModel    string          `json:"new_model"`
	NewPrice    decimal.Decimal `json:"new_price"`
	NewSupply   decimal.Decimal `json:"new_supply"`
}

// RollbackResult documents a reversal.
type RollbackResult struct {
	MigrationID   uint   `json:"migration_id"`
	RestoredModel string `json:"restored_model"`
}

func hasErrorFinding(findings []ValidationFinding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func findingSummary(findings []ValidationFinding) string {
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		parts = append(parts, f.Severity+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// previewMigration computes the target-model state for the asset's current
// funds raised. Pure with respect to the asset; legacy sources are opaque,
// only price and funds raised are read from them.
func previewMigration(asset *models.Asset, target curve.PricingModel) (*MigrationPreview, error) {
	preview := &MigrationPreview{
		AssetID:     asset.ID,
		FromModel:   asset.PricingModel,
		TargetModel: string(target),
		OldPrice:    asset.CurrentPrice,
		OldSupply:   asset.TokensSold,
	}

	if string(target) == asset.PricingModel {
		preview.Findings = append(preview.Findings, ValidationFinding{
			Severity: SeverityError,
			Message:  "asset is already on the target pricing model",
		})
		return preview, nil
	}

	targetCfg, err := curve.Resolve(target)
	if err != nil {
		return nil, &TradeError{Code: CodeUnknownPricingModel, Message: err.Error()}
	}

	inv, err := curve.TokensSoldFromRaised(targetCfg, asset.FundsRaised)
	if err != nil {
		return nil, &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
	}
	if inv.OutOfRange {
		preview.Findings = append(preview.Findings, ValidationFinding{
			Severity: SeverityError,
			Message:  fmt.Sprintf("funds raised %s exceeds target curve capacity, asset should graduate instead", asset.FundsRaised),
		})
	}
	newPrice, err := curve.Price(targetCfg, inv.TokensSold)
	if err != nil {
		return nil, &TradeError{Code: CodeInvalidAmount, Message: err.Error()}
	}

	preview.NewSupply = inv.TokensSold
	preview.NewPrice = newPrice

	if asset.CurrentPrice.Sign() > 0 {
		change := newPrice.Sub(asset.CurrentPrice).Div(asset.CurrentPrice).Mul(hundred)
		preview.PriceChangePercent = change
		if change.Abs().GreaterThan(targetCfg.MigrationPriceTolerancePercent) {
			preview.Findings = append(preview.Findings, ValidationFinding{
				Severity: SeverityWarning,
				Message: fmt.Sprintf("price moves %s%%, beyond the %s%% tolerance",
					change.Round(4), targetCfg.MigrationPriceTolerancePercent),
			})
		}
	} else {
		preview.Findings = append(preview.Findings, ValidationFinding{
			Severity: SeverityWarning,
			Message:  "source price is zero, price change cannot be evaluated",
		})
	}

	return preview, nil
}

// DryRunMigration previews a migration without mutating anything. No lock.
func (e *Engine) DryRunMigration(assetID uint, target curve.PricingModel) (*MigrationPreview, error) {
	var asset models.Asset
	if err := e.db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errAssetNotFound(assetID)
		}
		return nil, fmt.Errorf("load asset: %w", err)
	}
	return previewMigration(&asset, target)
}

// Migrate transitions the asset to the target pricing model. The record moves
// pending -> in_progress -> completed, or -> failed with the asset untouched.
func (e *Engine) Migrate(ctx context.Context, assetID uint, target curve.PricingModel) (*MigrationResult, error) {
	if err := e.locks.Acquire(ctx, assetID); err != nil {
		return nil, &TradeError{Code: CodeLockWaitTimeout, Message: err.Error()}
	}
	result, completedEvent, err := e.migrateLocked(assetID, target)
	if err != nil {
		return nil, err
	}
	if completedEvent != nil {
		e.publish(QueueMarketEvents, completedEvent)
	}
	return result, nil
}

func (e *Engine) migrateLocked(assetID uint, target curve.PricingModel) (*MigrationResult, *MarketEvent, error) {
	defer e.locks.Release(assetID)

	var (
		result MigrationResult
		event  *MarketEvent
		failed *TradeError
		now    = e.now()
	)

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&asset, assetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errAssetNotFound(assetID)
			}
			return fmt.Errorf("lock asset row: %w", err)
		}

		state, err := loadOrCreateMigrationState(tx, &asset, string(target))
		if err != nil {
			return err
		}
		if state.AttemptCount >= maxMigrationAttempts {
			return &TradeError{
				Code:    CodeMigrationRetryCap,
				Message: fmt.Sprintf("migration failed %d times, refusing further retries", state.AttemptCount),
				Phase:   state.Phase,
			}
		}

		snapshot := models.AssetSnapshot{
			PricingModel:        asset.PricingModel,
			FundsRaised:         asset.FundsRaised,
			TokensSold:          asset.TokensSold,
			CurrentPrice:        asset.CurrentPrice,
			TotalSupply:         asset.TotalSupply,
			CurveSupply:         asset.CurveSupply,
			LpSupply:            asset.LpSupply,
			GraduationThreshold: asset.GraduationThreshold,
		}
		rollbackData, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}

		state.Phase = models.MigrationPhaseInProgress
		state.TargetModel = string(target)
		state.OldPrice = asset.CurrentPrice
		state.OldSupply = asset.TokensSold
		state.RollbackData = rollbackData
		state.StartedAt = &now
		state.AttemptCount++
		if err := tx.Save(state).Error; err != nil {
			return fmt.Errorf("save migration state: %w", err)
		}

		preview, err := previewMigration(&asset, target)
		if err != nil {
			// resolution errors count as a failed attempt
			state.Phase = models.MigrationPhaseFailed
			state.FailureReason = err.Error()
			state.ValidationPassed = false
			if saveErr := tx.Save(state).Error; saveErr != nil {
				return fmt.Errorf("save failed migration state: %w", saveErr)
			}
			failed = &TradeError{Code: CodeMigrationState, Message: err.Error(), Phase: state.Phase}
			return nil
		}

		if hasErrorFinding(preview.Findings) {
			state.Phase = models.MigrationPhaseFailed
			state.FailureReason = findingSummary(preview.Findings)
			state.ValidationPassed = false
			if saveErr := tx.Save(state).Error; saveErr != nil {
				return fmt.Errorf("save failed migration state: %w", saveErr)
			}
			failed = &TradeError{Code: CodeMigrationState, Message: state.FailureReason, Phase: state.Phase}
			return nil
		}

		targetCfg, err := curve.Resolve(target)
		if err != nil {
			return &TradeError{Code: CodeUnknownPricingModel, Message: err.Error()}
		}

		// Commit: asset fields and record in the same transaction.
		// is_graduated is never touched by migration.
		if err := tx.Model(&models.Asset{}).Where("id = ?", asset.ID).Updates(map[string]interface{}{
			"pricing_model":        string(target),
			"tokens_sold":          preview.NewSupply,
			"current_price":        preview.NewPrice,
			"total_supply":         targetCfg.TotalSupply,
			"curve_supply":         targetCfg.CurveSupply,
			"lp_supply":            targetCfg.LpSupply,
			"graduation_threshold": targetCfg.GraduationThreshold,
		}).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		state.Phase = models.MigrationPhaseCompleted
		state.ValidationPassed = true
		state.FailureReason = ""
		state.NewPrice = preview.NewPrice
		state.NewSupply = preview.NewSupply
		state.CompletedAt = &now
		if err := tx.Save(state).Error; err != nil {
			return fmt.Errorf("save migration state: %w", err)
		}

		result = MigrationResult{
			MigrationID: state.ID,
			Phase:       state.Phase,
			NewModel:    string(target),
			NewPrice:    preview.NewPrice,
			NewSupply:   preview.NewSupply,
		}
		event = &MarketEvent{
			Type:    EventMigrationCompleted,
			AssetID: asset.ID,
			Price:   preview.NewPrice,
			Raised:  asset.FundsRaised,
			At:      now,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if failed != nil {
		e.log.WithFields(logrus.Fields{
			"asset_id": assetID,
			"target":   target,
			"reason":   failed.Message,
		}).Warn("migration failed validation")
		return nil, nil, failed
	}
	return &result, event, nil
}

// loadOrCreateMigrationState finds the asset's current migration record. A
// failed record is reused and re-enters pending; completed and rollback
// records are history and a fresh record is created.
func loadOrCreateMigrationState(tx *gorm.DB, asset *models.Asset, target string) (*models.MigrationState, error) {
	var state models.MigrationState
	err := tx.Where("asset_id = ?", asset.ID).Order("id DESC").First(&state).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first attempt
	case err != nil:
		return nil, fmt.Errorf("load migration state: %w", err)
	case state.Phase == models.MigrationPhaseInProgress:
		return nil, &TradeError{
			Code:    CodeMigrationState,
			Message: "migration already in progress",
			Phase:   state.Phase,
		}
	case state.Phase == models.MigrationPhaseFailed && state.TargetModel == target:
		state.Phase = models.MigrationPhasePending
		return &state, nil
	}

	state = models.MigrationState{
		AssetID:     asset.ID,
		Phase:       models.MigrationPhasePending,
		FromModel:   asset.PricingModel,
		TargetModel: target,
	}
	if err := tx.Create(&state).Error; err != nil {
		return nil, fmt.Errorf("create migration state: %w", err)
	}
	return &state, nil
}

// Rollback reverses the asset's last completed migration from its snapshot.
// History is preserved: the reversal is a fresh transition record.
func (e *Engine) Rollback(ctx context.Context, assetID uint) (*RollbackResult, error) {
	if err := e.locks.Acquire(ctx, assetID); err != nil {
		return nil, &TradeError{Code: CodeLockWaitTimeout, Message: err.Error()}
	}
	result, event, err := e.rollbackLocked(assetID)
	if err != nil {
		return nil, err
	}
	e.publish(QueueMarketEvents, event)
	return result, nil
}

func (e *Engine) rollbackLocked(assetID uint) (*RollbackResult, *MarketEvent, error) {
	defer e.locks.Release(assetID)

	var (
		result RollbackResult
		event  MarketEvent
		now    = e.now()
	)

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&asset, assetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errAssetNotFound(assetID)
			}
			return fmt.Errorf("lock asset row: %w", err)
		}

		var state models.MigrationState
		if err := tx.Where("asset_id = ?", assetID).Order("id DESC").First(&state).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &TradeError{Code: CodeMigrationState, Message: "asset has no migration to roll back"}
			}
			return fmt.Errorf("load migration state: %w", err)
		}
		if state.Phase != models.MigrationPhaseCompleted || state.IsRollback {
			return &TradeError{
				Code:    CodeMigrationState,
				Message: "rollback is only valid from a completed migration",
				Phase:   state.Phase,
			}
		}

		var snapshot models.AssetSnapshot
		if err := json.Unmarshal(state.RollbackData, &snapshot); err != nil {
			return fmt.Errorf("unmarshal rollback data: %w", err)
		}

		// is_graduated is deliberately not restored; graduation never reverts.
		if err := tx.Model(&models.Asset{}).Where("id = ?", asset.ID).Updates(map[string]interface{}{
			"pricing_model":        snapshot.PricingModel,
			"funds_raised":         snapshot.FundsRaised,
			"tokens_sold":          snapshot.TokensSold,
			"current_price":        snapshot.CurrentPrice,
			"total_supply":         snapshot.TotalSupply,
			"curve_supply":         snapshot.CurveSupply,
			"lp_supply":            snapshot.LpSupply,
			"graduation_threshold": snapshot.GraduationThreshold,
		}).Error; err != nil {
			return fmt.Errorf("restore asset: %w", err)
		}

		reversal := models.MigrationState{
			AssetID:          assetID,
			Phase:            models.MigrationPhaseCompleted,
			FromModel:        asset.PricingModel,
			TargetModel:      snapshot.PricingModel,
			IsRollback:       true,
			OldPrice:         asset.CurrentPrice,
			OldSupply:        asset.TokensSold,
			NewPrice:         snapshot.CurrentPrice,
			NewSupply:        snapshot.TokensSold,
			ValidationPassed: true,
			StartedAt:        &now,
			CompletedAt:      &now,
		}
		if err := tx.Create(&reversal).Error; err != nil {
			return fmt.Errorf("create reversal record: %w", err)
		}

		result = RollbackResult{MigrationID: reversal.ID, RestoredModel: snapshot.PricingModel}
		event = MarketEvent{
			Type:    EventMigrationRolledBack,
			AssetID: assetID,
			Price:   snapshot.CurrentPrice,
			Raised:  snapshot.FundsRaised,
			At:      now,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &result, &event, nil
}
