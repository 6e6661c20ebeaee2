package models

import (
	"log"
	"time"

	"kroma-server/config"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var GormDB *gorm.DB

func InitDB() {
	if config.AppConfig == nil {
		log.Fatal("config.AppConfig is nil, call config.InitConfig first")
	}
	dsn := config.AppConfig.MySQL.DSN
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动建表：project / user_profile / gen_task（分镜内嵌于 project 行，不单独建表）
	if err := db.AutoMigrate(&Project{}, &UserProfile{}, &GenTask{}); err != nil {
		log.Fatalf("自动建表失败: %v", err)
	}

	GormDB = db
	log.Println("数据库连接成功 (GORM)")
}
