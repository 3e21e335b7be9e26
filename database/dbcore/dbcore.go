package dbcore

import (
	"fmt"
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codeurluce/hellocenter-presence/database/models"
)

var (
	instance *gorm.DB
	mu       sync.Mutex
)

// InitDatabase 初始化数据库连接并迁移表结构。
// driver 支持 sqlite（默认）与 mysql；重复调用是幂等的。
func InitDatabase(driver, dsn string) error {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return nil
	}

	var dial gorm.Dialector
	switch driver {
	case "", "sqlite":
		dial = sqlite.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		return fmt.Errorf("dbcore: unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("dbcore: open database failed: %w", err)
	}

	if err := db.AutoMigrate(
		&models.SessionInterval{},
		&models.DailyCumulative{},
		&models.CumulativeCorrection{},
		&models.AuditEvent{},
	); err != nil {
		return fmt.Errorf("dbcore: migrate failed: %w", err)
	}

	instance = db
	return nil
}

// GetDBInstance 返回全局数据库实例，未初始化时直接退出。
func GetDBInstance() *gorm.DB {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		log.Fatalln("dbcore: database not initialized, call InitDatabase first")
	}
	return instance
}
