package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wfunc/blockoni/board"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	GRPCAddress    string `mapstructure:"grpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	MaxRooms       int    `mapstructure:"max_rooms"`

	// Heartbeat drops connections silent for two intervals; 0 disables.
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

type DatabaseConfig struct {
	// Driver selects the match archive: memory, gorm or postgres.
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// GameConfig 对局规则参数
type GameConfig struct {
	Board               board.Params  `mapstructure:"board"`
	TurnLimit           int           `mapstructure:"turn_limit"`
	RotationEveryRounds int           `mapstructure:"rotation_every_rounds"`
	RotationDuration    time.Duration `mapstructure:"rotation_duration"`
	RotationFrame       time.Duration `mapstructure:"rotation_frame"`
	ItemCount           int           `mapstructure:"item_count"`
	SpeedUpBonus        int           `mapstructure:"speed_up_bonus"`
	Seed                int64         `mapstructure:"seed"`
	Seats               []SeatConfig  `mapstructure:"seats"`
}

// SeatConfig 座位：玩家ID、角色与起始格子
type SeatConfig struct {
	ID    string `mapstructure:"id"`
	Role  string `mapstructure:"role"`
	Start string `mapstructure:"start"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.grpc_address", ":8082")
	v.SetDefault("server.metrics_address", ":9090")
	v.SetDefault("server.max_rooms", 100)
	v.SetDefault("server.heartbeat", "30s")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "blockoni")
	v.SetDefault("database.postgres.dbname", "blockoni")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	b := board.DefaultParams()
	v.SetDefault("game.board.size", b.Size)
	v.SetDefault("game.board.spacing", b.Spacing)
	v.SetDefault("game.board.panel_thickness", b.PanelThickness)
	v.SetDefault("game.board.neighbor_ratio", b.NeighborRatio)
	v.SetDefault("game.turn_limit", 10)
	v.SetDefault("game.rotation_every_rounds", 4)
	v.SetDefault("game.rotation_duration", "1s")
	v.SetDefault("game.rotation_frame", "50ms")
	v.SetDefault("game.item_count", 6)
	v.SetDefault("game.speed_up_bonus", 2)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.seats", []map[string]string{
		{"id": "oni", "role": "Oni", "start": "Top_0_0"},
		{"id": "runner", "role": "Runner", "start": "Top_2_2"},
	})
}

// LoadConfig reads config.yaml from path. A missing file falls back to the
// defaults; BLOCKONI_* environment variables override both. A .env file next
// to config.yaml is loaded into the environment first, without replacing
// variables that are already set.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("blockoni")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
