package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sort"
	"time"

	"github.com/damoang/angple-wiki/internal/config"
	"github.com/damoang/angple-wiki/internal/database"
	"github.com/damoang/angple-wiki/internal/domain"
	"github.com/damoang/angple-wiki/internal/migration"
	"github.com/damoang/angple-wiki/internal/service"
	"github.com/damoang/angple-wiki/pkg/queue"
	pkgredis "github.com/damoang/angple-wiki/pkg/redis"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	verify := flag.Bool("verify", false, "verify node store integrity")
	reindex := flag.Bool("reindex", false, "enqueue a search reindex task for every wiki page")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if files := config.LoadDotEnv(); len(files) == 0 {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := database.Open(cfg.Database, logLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	start := time.Now()
	if err := migration.Run(db); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}
	log.Printf("[migrate] Schema up to date in %v", time.Since(start))

	if *verify {
		if !runVerify(db) {
			os.Exit(1)
		}
	}

	if *reindex {
		if err := runReindex(db, cfg); err != nil {
			log.Fatalf("[reindex] FAILED: %v", err)
		}
	}
}

func runVerify(db *gorm.DB) bool {
	report, err := migration.Verify(db)
	if err != nil {
		log.Printf("[verify] FAILED: %v", err)
		return false
	}

	types := make([]string, 0, len(report.NodesByType))
	for t := range report.NodesByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		log.Printf("[verify] %-10s %d nodes", t, report.NodesByType[t])
	}

	if report.BadPositions > 0 {
		log.Printf("[verify] MISMATCH %d nodes with lb >= rb", report.BadPositions)
	}
	for t, diff := range report.IndexMismatch {
		log.Printf("[verify] MISMATCH %s: nodes - index rows = %d", t, diff)
	}
	if report.OK() {
		log.Println("[verify] OK")
	}
	return report.OK()
}

func runReindex(db *gorm.DB, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := pkgredis.NewClient(ctx, pkgredis.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	tasks := queue.NewRedisQueue(client, cfg.Queue.Key)

	var ids []uint64
	if err := db.Model(&domain.NodeRow{}).
		Where("type = ?", string(domain.NodeTypeWiki)).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return err
	}

	for _, id := range ids {
		if err := tasks.Enqueue(ctx, service.ActionReindex, map[string]interface{}{"id": id}); err != nil {
			return err
		}
	}
	log.Printf("[reindex] Enqueued %d pages", len(ids))
	return nil
}
