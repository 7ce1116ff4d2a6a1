package db

import (
	"strings"
	"testing"

	"github.com/zerbini/agrofrota/internal/config"
	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/gorm/clause"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Name: "agrofrota"},
			want: "root@tcp(127.0.0.1:3306)/agrofrota?parseTime=true&charset=utf8mb4",
		},
		{
			name: "custom host and user",
			cfg:  config.DatabaseConfig{User: "agro", Host: "db.fazenda.internal", Port: 3307, Name: "frota"},
			want: "agro@tcp(db.fazenda.internal:3307)/frota?parseTime=true&charset=utf8mb4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_Charset(t *testing.T) {
	// City names and task text carry accents; the connection must be utf8mb4.
	dsn := DSN(config.DatabaseConfig{User: "root", Host: "h", Port: 1, Name: "n"})
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Errorf("DSN missing charset=utf8mb4: %s", dsn)
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "mongo"})
	if err == nil {
		t.Fatal("Connect accepted an unsupported driver")
	}
}

func TestConnect_SQLiteMemoryAndMigrate(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Migrate must be idempotent.
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestTemplateUniqueKey_ConflictIgnored(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	tmpl := models.TaskTemplate{Model: "7200J", Cidade: "Uberlândia", Estado: "MG", Date: "2026-08-28", Tasks: `["a"]`}
	if err := db.Create(&tmpl).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}

	dup := models.TaskTemplate{Model: "7200J", Cidade: "Uberlândia", Estado: "MG", Date: "2026-08-28", Tasks: `["b"]`}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&dup)
	if res.Error != nil {
		t.Fatalf("conflicting insert errored instead of no-op: %v", res.Error)
	}

	var count int64
	db.Model(&models.TaskTemplate{}).Count(&count)
	if count != 1 {
		t.Errorf("template count = %d, want 1 (unique key must dedupe)", count)
	}
}
