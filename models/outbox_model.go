package models

import "time"

const (
	OutboxPending  = "pending"
	OutboxSynced   = "synced"
	OutboxRejected = "rejected"

	OutboxKindRegister = "register"
)

// OutboxEntryModel is a write that could not reach the farmer API and waits for replay.
type OutboxEntryModel struct {
	EntryId   string    `gorm:"column:entry_id;primaryKey" json:"entryId"`
	Kind      string    `gorm:"column:kind;index" json:"kind"`
	Payload   string    `gorm:"column:payload" json:"payload"`
	Status    string    `gorm:"column:status;index" json:"status"`
	Attempts  int       `gorm:"column:attempts" json:"attempts"`
	LastError string    `gorm:"column:last_error" json:"lastError,omitempty"`
	FarmerId  string    `gorm:"column:farmer_id" json:"farmerId,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (OutboxEntryModel) TableName() string {
	return "outbox_entries"
}

func (m *OutboxEntryModel) Id() string {
	return m.EntryId
}
