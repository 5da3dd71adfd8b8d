package database

import (
	"fmt"
	"log"

	"easytest_backend/internal/config"
	"easytest_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	return db, nil
}

// Migrate 建表。联结表带 position 字段，先注册再 automigrate。
// 是否迁移由调用方决定（release 模式默认跳过，-migrate 强制执行）。
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Test{}, "Questions", &model.TestQuestion{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.TestCategory{},
		&model.Test{},
		&model.Question{},
		&model.Answer{},
		&model.Result{},
		&model.UserAnswer{},
	); err != nil {
		return err
	}

	// 默认测试分类
	var count int64
	if err := db.Model(&model.TestCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return db.Create(&model.TestCategory{Name: "通用", Description: "默认测试分类"}).Error
	}
	return nil
}
