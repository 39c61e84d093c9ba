package dialogue

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lhawkeye71/ai-phone-agent/internal/extract"
	"github.com/lhawkeye71/ai-phone-agent/internal/steak"
)

// Role tags one side of a dialogue turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in a call, spoken either by the caller or the agent.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered turn sequence for a call. It lives in a single JSON
// text column; a call's turns arrive strictly one at a time, so the whole
// history is read and written as a unit.
type History []Turn

// Value implements driver.Valuer.
func (h History) Value() (driver.Value, error) {
	if h == nil {
		h = History{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (h *History) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*h = History{}
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("unsupported history column type %T", src)
	}
}

// CallSession is the per-call dialogue state, keyed by the telephony
// provider's call ID. CompletedAt marks that the record was committed and
// the completion side effects already fired; a retried webhook after that
// point must not fire them again.
type CallSession struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	CallID          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"call_id"`
	CallerAddress   string     `gorm:"type:varchar(32);index;not null" json:"caller_address"`
	History         History    `gorm:"type:text" json:"history"`
	Name            *string    `gorm:"type:varchar(64)" json:"name,omitempty"`
	FavoriteColor   *string    `gorm:"type:varchar(32)" json:"favorite_color,omitempty"`
	SteakPreference *string    `gorm:"type:varchar(16)" json:"steak_preference,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (CallSession) TableName() string {
	return "call_sessions"
}

// Completed reports whether the call already produced a committed record.
func (s *CallSession) Completed() bool {
	return s.CompletedAt != nil
}

// PartialRecord returns the facts confirmed for this call so far.
func (s *CallSession) PartialRecord() extract.Record {
	var rec extract.Record
	if s.Name != nil {
		rec.Name = *s.Name
	}
	if s.FavoriteColor != nil {
		rec.FavoriteColor = *s.FavoriteColor
	}
	if s.SteakPreference != nil {
		if d, ok := steak.ParseDoneness(*s.SteakPreference); ok {
			rec.Steak = d
		}
	}
	return rec
}

// mergeRecord folds freshly extracted values into the confirmed record.
// Non-empty values win; a slot once filled is never cleared by a later
// extraction that happens not to mention it.
func mergeRecord(confirmed, found extract.Record) extract.Record {
	if found.Name != "" {
		confirmed.Name = found.Name
	}
	if found.FavoriteColor != "" {
		confirmed.FavoriteColor = found.FavoriteColor
	}
	if found.Steak != "" {
		confirmed.Steak = found.Steak
	}
	return confirmed
}

// CustomerRecord is the completed fact set for one caller. One row per
// caller address: a record from a later call replaces the earlier one.
type CustomerRecord struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	CallerAddress   string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"caller_address"`
	Name            string    `gorm:"type:varchar(64);not null" json:"name"`
	FavoriteColor   string    `gorm:"type:varchar(32);not null" json:"favorite_color"`
	SteakPreference string    `gorm:"type:varchar(16);not null" json:"steak_preference"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (CustomerRecord) TableName() string {
	return "customer_records"
}
