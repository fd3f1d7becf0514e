package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SyncType tags what a sync invocation was doing.
type SyncType string

const (
	SyncTypeMasterImport SyncType = "MASTER_IMPORT"
	SyncTypeIntakeImport SyncType = "INTAKE_IMPORT"
	SyncTypeXLSXImport   SyncType = "XLSX_IMPORT"
	SyncTypeFieldUpdate  SyncType = "FIELD_UPDATE"
)

// SyncStatus is the terminal status of a sync invocation.
type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "RUNNING"
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusPartial SyncStatus = "PARTIAL"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// SyncLog is the audit record for one sync invocation. It is created when
// the sync starts and updated exactly once when it ends, on both the
// success and the failure path.
type SyncLog struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SheetName string     `json:"sheetName" gorm:"type:varchar(255);not null"`
	SyncType  SyncType   `json:"syncType" gorm:"type:varchar(30);not null"`
	Status    SyncStatus `json:"status" gorm:"type:varchar(20);not null;default:'RUNNING';index:idx_sync_logs_status"`

	RecordsAdded   int `json:"recordsAdded" gorm:"default:0"`
	RecordsUpdated int `json:"recordsUpdated" gorm:"default:0"`
	RecordsFailed  int `json:"recordsFailed" gorm:"default:0"`

	// Truncated digest: at most the first N per-record error messages.
	Errors pq.StringArray `json:"errors" gorm:"type:text[]"`

	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for SyncLog
func (SyncLog) TableName() string {
	return "sync_logs"
}
