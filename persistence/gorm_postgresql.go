// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfunc/blockoni/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,         // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormMatchRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveMatchRecord 保存对局记录，重复的 match_id 忽略
func (p *GormPostgreSQL) SaveMatchRecord(record *models.MatchRecord) error {
	var row models.GormMatchRecord
	row.FromRecord(record)
	return p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// LoadMatchRecord 加载对局记录
func (p *GormPostgreSQL) LoadMatchRecord(matchID string) (*models.MatchRecord, error) {
	var row models.GormMatchRecord
	if err := p.db.Where("match_id = ?", matchID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return row.ToRecord(), nil
}

// ListMatchRecords 最近的对局，roomID 为空时不过滤
func (p *GormPostgreSQL) ListMatchRecords(roomID string, limit int) ([]*models.MatchRecord, error) {
	q := p.db.Order("ended_at DESC")
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.GormMatchRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.MatchRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToRecord())
	}
	return out, nil
}

// GetResultStats 胜负统计
func (p *GormPostgreSQL) GetResultStats() (*ResultStats, error) {
	var stats ResultStats
	err := p.db.Model(&models.GormMatchRecord{}).Select(
		`COUNT(*) AS total_matches,
		COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0) AS oni_wins,
		COALESCE(SUM(CASE WHEN result = ? THEN 1 ELSE 0 END), 0) AS runner_wins,
		COALESCE(AVG(turns), 0) AS avg_turns`,
		string(models.ResultOniWin), string(models.ResultRunnerWin),
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

