package models

import "time"

// GenerationRecord is the metadata of one finished stream session.
// The streamed content itself is never stored.
type GenerationRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    string    `gorm:"not null;size:64;uniqueIndex" json:"session_id"`
	RequestID    string    `gorm:"not null;size:100;index;default:''" json:"request_id,omitzero"`
	SourceID     string    `gorm:"not null;size:100;index" json:"source_id"`
	State        string    `gorm:"not null;size:20;index" json:"state"`
	Chunks       int       `gorm:"not null;default:0" json:"chunks"`
	Bytes        int64     `gorm:"not null;default:0" json:"bytes"`
	BlockSize    int       `gorm:"not null;default:0" json:"block_size"`
	DelayMs      int64     `gorm:"not null;default:0" json:"delay_ms"`
	DurationMs   int64     `gorm:"not null;default:0" json:"duration_ms"`
	IPAddress    string    `gorm:"not null;size:45;default:''" json:"ip_address,omitzero"`
	ErrorMessage string    `gorm:"not null;type:text;default:''" json:"error_message,omitzero"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (GenerationRecord) TableName() string {
	return "generation_records"
}

// RecordGenerationParams is what the stream handler reports when a session ends
type RecordGenerationParams struct {
	SessionID    string
	RequestID    string
	SourceID     string
	State        string
	Chunks       int
	Bytes        int64
	BlockSize    int
	Delay        time.Duration
	Duration     time.Duration
	IPAddress    string
	ErrorMessage string
}
