package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"schoolku_finance/internals/configs"
	"schoolku_finance/internals/databases/docstore"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB(cfg configs.DBConfig, zl *zap.Logger) (*gorm.DB, error) {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	// Catatan: kalau pakai PgBouncer, ganti host/port ke port PgBouncer dan biarkan PreferSimpleProtocol=true
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=%s&options=-c statement_timeout=%d",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode, cfg.AppName, cfg.StatementTimeout,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: configs.NewGormLogger(zl)})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	log.Println("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// OpenStore memilih backend docstore sesuai STORE_DRIVER.
// Untuk postgres, tabel documents di-migrate otomatis.
func OpenStore(cfg configs.FinanceConfig, zl *zap.Logger) (docstore.Store, error) {
	hub := docstore.NewHub()

	switch cfg.StoreDriver {
	case configs.StoreDriverMemory:
		zl.Warn("using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(
			docstore.WithMemoryHub(hub),
			docstore.WithMemoryMaxBatchOps(cfg.MaxBatchOps),
		), nil

	case configs.StoreDriverPostgres, "":
		db, err := ConnectDB(cfg.DB, zl)
		if err != nil {
			return nil, err
		}
		TunePool(db)
		s := docstore.NewGormStore(db,
			docstore.WithGormHub(hub),
			docstore.WithGormMaxBatchOps(cfg.MaxBatchOps),
		)
		if err := s.AutoMigrate(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// StartRelay menghubungkan hub ke Redis bila REDIS_ADDR diset.
// Gagal konek bukan fatal: notifikasi tetap jalan lokal.
func StartRelay(ctx context.Context, cfg configs.FinanceConfig, hub *docstore.Hub, zl *zap.Logger) func() {
	if cfg.RedisAddr == "" {
		return func() {}
	}
	client, err := docstore.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		zl.Warn("redis relay disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return func() {}
	}

	relay := docstore.NewRedisRelay(client, hub, zl.Named("relay"))
	hub.SetRelay(relay)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx)
	}()
	return func() {
		hub.SetRelay(nil)
		cancel()
		<-done
		_ = client.Close()
	}
}
