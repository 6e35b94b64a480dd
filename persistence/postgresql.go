// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wfunc/blockoni/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 数据库实现 (lib/pq + database/sql)
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化表结构，与 GORM 迁移出的 match_records 表兼容
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS match_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            match_id TEXT NOT NULL,
            room_id TEXT,
            result TEXT NOT NULL,
            turns BIGINT DEFAULT 0,
            rotations BIGINT DEFAULT 0,
            players JSONB,
            started_at TIMESTAMPTZ,
            ended_at TIMESTAMPTZ,
            duration BIGINT DEFAULT 0
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS idx_match_records_match_id ON match_records(match_id);
        CREATE INDEX IF NOT EXISTS idx_match_records_room_id ON match_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_match_records_result ON match_records(result);
    `)
	return err
}

// SaveMatchRecord 保存对局记录，重复的 match_id 忽略
func (p *PostgreSQL) SaveMatchRecord(record *models.MatchRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO match_records (match_id, room_id, result, turns, rotations, players, started_at, ended_at, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (match_id) DO NOTHING
    `
	_, err = p.db.ExecContext(ctx, query,
		record.MatchID,
		record.RoomID,
		string(record.Result),
		record.Turns,
		record.Rotations,
		players,
		record.StartedAt,
		record.EndedAt,
		int(record.Duration().Seconds()))
	return err
}

const selectRecord = `SELECT match_id, room_id, result, turns, rotations, players, started_at, ended_at FROM match_records`

// LoadMatchRecord 加载对局记录
func (p *PostgreSQL) LoadMatchRecord(matchID string) (*models.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx, selectRecord+` WHERE match_id = $1 AND deleted_at IS NULL`, matchID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return r, err
}

// ListMatchRecords 最近的对局，roomID 为空时不过滤
func (p *PostgreSQL) ListMatchRecords(roomID string, limit int) ([]*models.MatchRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := selectRecord + ` WHERE deleted_at IS NULL AND ($1 = '' OR room_id = $1) ORDER BY ended_at DESC`
	args := []any{roomID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MatchRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetResultStats 胜负统计
func (p *PostgreSQL) GetResultStats() (*ResultStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	results := pq.Array([]string{string(models.ResultOniWin), string(models.ResultRunnerWin)})
	query := `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN result = $1 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN result = $2 THEN 1 ELSE 0 END), 0),
            COALESCE(AVG(turns), 0)
        FROM match_records
        WHERE deleted_at IS NULL AND result = ANY($3)
    `
	var stats ResultStats
	err := p.db.QueryRowContext(ctx, query, string(models.ResultOniWin), string(models.ResultRunnerWin), results).
		Scan(&stats.TotalMatches, &stats.OniWins, &stats.RunnerWins, &stats.AvgTurns)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.MatchRecord, error) {
	var (
		r       models.MatchRecord
		roomID  sql.NullString
		result  string
		players []byte
		started pq.NullTime
		ended   pq.NullTime
	)
	if err := s.Scan(&r.MatchID, &roomID, &result, &r.Turns, &r.Rotations, &players, &started, &ended); err != nil {
		return nil, err
	}
	r.RoomID = roomID.String
	r.Result = models.Result(result)
	r.StartedAt = started.Time
	r.EndedAt = ended.Time
	if len(players) > 0 {
		if err := json.Unmarshal(players, &r.Players); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
