package model

// TestCategory 测试分类
type TestCategory struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (TestCategory) TableName() string {
	return "test_categories"
}

// Test 一份测试卷，由教职人员创建。
// 题目顺序由 test_questions 联结表的 position 字段显式固定，
// 不依赖数据库返回顺序。
// swagger:model Test
type Test struct {
	BaseModel
	OwnerID     uint   `gorm:"index;type:bigint unsigned" json:"ownerId"`
	CategoryID  *uint  `gorm:"index" json:"categoryId,omitempty"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// TimeLimitSeconds 为 0 表示不限时
	TimeLimitSeconds       int         `gorm:"default:0" json:"timeLimitSeconds"`
	RequiredCorrectAnswers int         `gorm:"default:0" json:"requiredCorrectAnswers"`
	Questions              []*Question `gorm:"many2many:test_questions;" json:"questions,omitempty"`
}

func (Test) TableName() string {
	return "tests"
}

// TestQuestion 测试与题目的联结表，Position 决定出题顺序
type TestQuestion struct {
	TestID     uint `gorm:"primaryKey;type:bigint unsigned" json:"testId"`
	QuestionID uint `gorm:"primaryKey;type:bigint unsigned" json:"questionId"`
	Position   int  `gorm:"default:0" json:"position"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}
