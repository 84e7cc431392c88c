package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecomm-sync/core/database"
	"ecomm-sync/core/reconcile"

	"gorm.io/gorm"
)

var (
	// ErrStaleRecord is returned when a status write finds the row no longer pending.
	ErrStaleRecord = errors.New("staged record is no longer pending")
	// ErrNotFound is returned when a staged record does not exist.
	ErrNotFound = errors.New("staged record not found")
)

// GateResult counts the rows moved by Gate.
type GateResult struct {
	Promoted int64 `json:"promoted"`
	Skipped  int64 `json:"skipped"`
	Excluded int64 `json:"excluded"`
}

// PurgeResult counts the rows removed by Purge.
type PurgeResult struct {
	Records   int64 `json:"records"`
	LineItems int64 `json:"line_items"`
}

// Store reads and writes the staging tables. Every statement binds its values
// as parameters and touches at most the rows it names.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the staging tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&StagedRecord{}, &LineItem{}, &Destination{}); err != nil {
		return fmt.Errorf("failed to migrate staging tables: %w", err)
	}
	return nil
}

// VerifySchema checks that the staging table has every column the sync uses.
func (s *Store) VerifySchema(ctx context.Context) error {
	missing, err := database.MissingColumns(s.db.WithContext(ctx), StagedRecord{}.TableName(), stagingColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("staging table %s is missing columns: %s", StagedRecord{}.TableName(), strings.Join(missing, ", "))
	}
	return nil
}

// Stage inserts new staged records.
func (s *Store) Stage(ctx context.Context, records ...StagedRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to stage records: %w", err)
	}
	return nil
}

// StageLineItems inserts line items.
func (s *Store) StageLineItems(ctx context.Context, items ...LineItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		return fmt.Errorf("failed to stage line items: %w", err)
	}
	return nil
}

// SaveDestination inserts or replaces a destination.
func (s *Store) SaveDestination(ctx context.Context, d Destination) error {
	if err := s.db.WithContext(ctx).Save(&d).Error; err != nil {
		return fmt.Errorf("failed to save destination %s: %w", d.ID, err)
	}
	return nil
}

// ListPending returns every pending record ordered by transaction id.
func (s *Store) ListPending(ctx context.Context) ([]StagedRecord, error) {
	return s.ListByStatus(ctx, reconcile.StatusPending, 0)
}

// ListByStatus returns records in the given status, oldest transaction first.
// A limit of 0 returns all of them.
func (s *Store) ListByStatus(ctx context.Context, status reconcile.Status, limit int) ([]StagedRecord, error) {
	var records []StagedRecord
	q := s.db.WithContext(ctx).
		Where("order_update_status = ?", status).
		Order("transaction_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", status, err)
	}
	return records, nil
}

// CountByStatus returns the number of records per status.
func (s *Store) CountByStatus(ctx context.Context) (map[reconcile.Status]int64, error) {
	var rows []struct {
		Status reconcile.Status `gorm:"column:order_update_status"`
		Count  int64            `gorm:"column:n"`
	}
	err := s.db.WithContext(ctx).
		Model(&StagedRecord{}).
		Select("order_update_status, COUNT(*) AS n").
		Group("order_update_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	counts := make(map[reconcile.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Get returns one staged record.
func (s *Store) Get(ctx context.Context, transactionID string) (*StagedRecord, error) {
	var record StagedRecord
	err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, transactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", transactionID, err)
	}
	return &record, nil
}

// LineItems returns the ticket lines of one staged transaction.
func (s *Store) LineItems(ctx context.Context, transactionID, orderID string) ([]LineItem, error) {
	var items []LineItem
	err := s.db.WithContext(ctx).
		Where("transaction_id = ? AND order_id = ?", transactionID, orderID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load line items for %s: %w", transactionID, err)
	}
	return items, nil
}

// SaveOutcome writes the outcome of a pending record in one statement.
// The update is conditioned on the row still being pending; if it is not,
// ErrStaleRecord is returned and nothing changes.
func (s *Store) SaveOutcome(ctx context.Context, transactionID string, outcome reconcile.Outcome, at time.Time) error {
	if err := reconcile.Transition(reconcile.StatusPending, outcome.Status); err != nil {
		return err
	}

	updates := map[string]any{
		"order_update_status": outcome.Status,
		"order_post_type":     outcome.PostType,
		"response_object":     outcome.Response,
		"status_updated_at":   at,
	}
	if outcome.RemoteID != "" {
		updates["remote_order_id"] = outcome.RemoteID
	}

	res := s.db.WithContext(ctx).
		Model(&StagedRecord{}).
		Where("transaction_id = ? AND order_update_status = ?", transactionID, reconcile.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to save outcome for %s: %w", transactionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrStaleRecord, transactionID)
	}
	return nil
}

// Gate moves new records whose destination is email-active to pending and
// those whose destination is inactive to skipped. Pending records whose
// destination became inactive are excluded. Records without a destination
// are treated as active; records naming an unknown destination stay new.
func (s *Store) Gate(ctx context.Context, at time.Time) (GateResult, error) {
	var result GateResult
	active := s.db.Model(&Destination{}).Select("destination_id").Where("email_active = ?", true)
	inactive := s.db.Model(&Destination{}).Select("destination_id").Where("email_active = ?", false)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&StagedRecord{}).
			Where("order_update_status = ?", reconcile.StatusNew).
			Where("destination_id = ? OR destination_id IS NULL OR destination_id IN (?)", "", active).
			Updates(map[string]any{"order_update_status": reconcile.StatusPending, "status_updated_at": at})
		if res.Error != nil {
			return fmt.Errorf("failed to promote new records: %w", res.Error)
		}
		result.Promoted = res.RowsAffected

		res = tx.Model(&StagedRecord{}).
			Where("order_update_status = ? AND destination_id IN (?)", reconcile.StatusNew, inactive).
			Updates(map[string]any{
				"order_update_status": reconcile.StatusSkipped,
				"response_object":     "destination is not email active",
				"status_updated_at":   at,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to skip inactive records: %w", res.Error)
		}
		result.Skipped = res.RowsAffected

		res = tx.Model(&StagedRecord{}).
			Where("order_update_status = ? AND destination_id IN (?)", reconcile.StatusPending, inactive).
			Updates(map[string]any{
				"order_update_status": reconcile.StatusExcluded,
				"response_object":     "destination is no longer email active",
				"status_updated_at":   at,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to exclude inactive records: %w", res.Error)
		}
		result.Excluded = res.RowsAffected
		return nil
	})
	return result, err
}

// Purge deletes terminal records staged before cutoff and line items that no
// longer belong to any staged record. New and pending records are kept.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (PurgeResult, error) {
	var result PurgeResult
	db := s.db.WithContext(ctx)

	res := db.Where("staged_at < ? AND order_update_status NOT IN ?", cutoff,
		[]reconcile.Status{reconcile.StatusNew, reconcile.StatusPending}).
		Delete(&StagedRecord{})
	if res.Error != nil {
		return result, fmt.Errorf("failed to purge staged records: %w", res.Error)
	}
	result.Records = res.RowsAffected

	live := s.db.Model(&StagedRecord{}).Select("transaction_id")
	res = db.Where("staged_at < ? AND transaction_id NOT IN (?)", cutoff, live).Delete(&LineItem{})
	if res.Error != nil {
		return result, fmt.Errorf("failed to purge line items: %w", res.Error)
	}
	result.LineItems = res.RowsAffected
	return result, nil
}
