// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormMatchRecord 对局记录表
type GormMatchRecord struct {
	gorm.Model
	MatchID   string       `gorm:"uniqueIndex;not null"`
	RoomID    string       `gorm:"index"`
	Result    string       `gorm:"index;not null"`
	Turns     int          `gorm:"default:0"`
	Rotations int          `gorm:"default:0"`
	Players   []PlayerInfo `gorm:"serializer:json;type:jsonb"`
	StartedAt time.Time
	EndedAt   time.Time
	Duration  int `gorm:"default:0"` // 对局时长(秒)
}

// TableName keeps the table shared with the raw SQL store.
func (GormMatchRecord) TableName() string {
	return "match_records"
}

// FromRecord fills the row from a domain record.
func (g *GormMatchRecord) FromRecord(r *MatchRecord) {
	g.MatchID = r.MatchID
	g.RoomID = r.RoomID
	g.Result = string(r.Result)
	g.Turns = r.Turns
	g.Rotations = r.Rotations
	g.Players = r.Players
	g.StartedAt = r.StartedAt
	g.EndedAt = r.EndedAt
	g.Duration = int(r.Duration().Seconds())
}

// ToRecord converts the row back to a domain record.
func (g *GormMatchRecord) ToRecord() *MatchRecord {
	return &MatchRecord{
		MatchID:   g.MatchID,
		RoomID:    g.RoomID,
		Result:    Result(g.Result),
		Turns:     g.Turns,
		Rotations: g.Rotations,
		Players:   g.Players,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
}
