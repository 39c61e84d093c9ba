package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lhawkeye71/ai-phone-agent/internal/extract"
)

// Store persists call sessions and customer records.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetOrCreate returns the session for callID, creating an empty one if none
// exists. Creation is insert-if-absent on the call_id unique index: when two
// webhook deliveries race, the loser falls back to reading the winner's row,
// so both see the same session.
func (s *Store) GetOrCreate(ctx context.Context, callID, callerAddress string) (*CallSession, error) {
	var sess CallSession
	err := s.db.WithContext(ctx).Where("call_id = ?", callID).First(&sess).Error
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr(err)
	}

	fresh := &CallSession{
		CallID:        callID,
		CallerAddress: callerAddress,
		History:       History{},
	}
	if createErr := s.db.WithContext(ctx).Create(fresh).Error; createErr != nil {
		// Lost the create race: a concurrent delivery inserted first.
		var existing CallSession
		if getErr := s.db.WithContext(ctx).Where("call_id = ?", callID).First(&existing).Error; getErr == nil {
			return &existing, nil
		}
		return nil, storageErr(createErr)
	}
	return fresh, nil
}

// Get returns the session for callID. Callers are expected to have run
// GetOrCreate earlier in the call's lifetime; a miss is an ordering bug.
func (s *Store) Get(ctx context.Context, callID string) (*CallSession, error) {
	var sess CallSession
	if err := s.db.WithContext(ctx).Where("call_id = ?", callID).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, callID)
		}
		return nil, storageErr(err)
	}
	return &sess, nil
}

// Update replaces the session's history and partial record in full.
// Turns within a call arrive strictly sequentially, so last-writer-wins
// needs no optimistic concurrency check. completedAt is only ever set, and
// only together with the turn that completed the record.
func (s *Store) Update(ctx context.Context, callID string, history History, rec extract.Record, completedAt *time.Time) error {
	values := map[string]any{
		"history":          history,
		"name":             nullable(rec.Name),
		"favorite_color":   nullable(rec.FavoriteColor),
		"steak_preference": nullable(string(rec.Steak)),
	}
	if completedAt != nil {
		values["completed_at"] = completedAt
	}
	res := s.db.WithContext(ctx).Model(&CallSession{}).Where("call_id = ?", callID).Updates(values)
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, callID)
	}
	return nil
}

// UpsertCustomer writes the completed record for a caller, replacing any
// record left by an earlier call from the same address.
func (s *Store) UpsertCustomer(ctx context.Context, rec *CustomerRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "caller_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "favorite_color", "steak_preference", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// GetCustomer returns the stored record for a caller address.
func (s *Store) GetCustomer(ctx context.Context, callerAddress string) (*CustomerRecord, error) {
	var rec CustomerRecord
	if err := s.db.WithContext(ctx).Where("caller_address = ?", callerAddress).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
