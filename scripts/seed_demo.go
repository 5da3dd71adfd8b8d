// 演示数据初始化脚本
//
// 建一个演示教师账号并导入一份小样例卷（select + sort 各一题），
// 用于本地联调。重复执行是安全的：账号已存在则跳过，卷子重复导入。
//
// 用法: go run scripts/seed_demo.go

package main

import (
	"log"

	"easytest_backend/internal/config"
	"easytest_backend/internal/model"
	"easytest_backend/internal/service"
	"easytest_backend/pkg/database"
	"easytest_backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("生成密码失败: %v", err)
	}

	staff := model.User{
		Name:     "演示教师",
		Email:    "staff@easytest.local",
		Password: string(hash),
		Role:     model.Staff,
	}
	var existing model.User
	if err := db.Where("email = ?", staff.Email).First(&existing).Error; err == nil {
		staff = existing
		log.Println("演示教师已存在，跳过创建")
	} else if err := db.Create(&staff).Error; err != nil {
		log.Fatalf("创建演示教师失败: %v", err)
	}

	doc := map[string]service.TestImport{
		"demo": {
			Title:                  "演示测验",
			Description:            "seed_demo 生成的样例卷",
			TimeLimitSeconds:       600,
			RequiredCorrectAnswers: 1,
			Questions: []service.QuestionImport{
				{QType: model.QTypeSelect, Description: "Go 的包管理工具是？", Answers: []service.AnswerImport{
					{Description: "go mod", IsCorrect: true},
					{Description: "pip"},
					{Description: "npm"},
				}},
				{QType: model.QTypeSort, Description: "按 HTTP 请求生命周期排序", Answers: []service.AnswerImport{
					{Description: "建立连接", Position: 1},
					{Description: "发送请求", Position: 2},
					{Description: "接收响应", Position: 3},
				}},
			},
		},
	}

	importer := service.NewImportService(db)
	if err := importer.ImportTests(doc, staff.ID); err != nil {
		log.Fatalf("导入样例卷失败: %v", err)
	}

	log.Println("完成！演示账号 staff@easytest.local / demo1234")
}
