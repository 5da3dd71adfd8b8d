package model

import "time"

// Result 一次答题记录。每个 (owner, test) 同时至多存在一条：
// 重新开考时旧记录连同其 user_answers 被物理删除（Unscoped）。
// Submitted 表示已交卷，区别于"进行中"。
// swagger:model Result
type Result struct {
	BaseModel
	OwnerID   uint      `gorm:"index;type:bigint unsigned" json:"ownerId"`
	TestID    uint      `gorm:"index;type:bigint unsigned" json:"testId"`
	StartedAt time.Time `json:"startedAt"`
	Submitted bool      `gorm:"default:false" json:"submitted"`
	// TimeSpent 交卷时写入，MM:SS 格式，仅用于展示
	TimeSpent         string `gorm:"size:10" json:"timeSpent"`
	RightAnswersCount int    `gorm:"default:0" json:"rightAnswersCount"`
	WrongAnswersCount int    `gorm:"default:0" json:"wrongAnswersCount"`
	IsTestPassed      bool   `gorm:"default:false" json:"isTestPassed"`
}

func (Result) TableName() string {
	return "results"
}

// UserAnswer 某次答题中对单个题目的作答快照。
// 开考时为每道题预建占位行（Attempted=false），作答后填充；
// 单行从不删除，随所属 Result 一并物理删除。
type UserAnswer struct {
	BaseModel
	OwnerID    uint `gorm:"index;type:bigint unsigned" json:"ownerId"`
	ResultID   uint `gorm:"uniqueIndex:idx_result_question;type:bigint unsigned" json:"resultId"`
	QuestionID uint `gorm:"uniqueIndex:idx_result_question;type:bigint unsigned" json:"questionId"`
	// Position 取自联结表的出题顺序快照，排序器按它走题
	Position    int    `gorm:"default:0" json:"position"`
	RightAnswer string `gorm:"size:512" json:"rightAnswer"`
	UserAnswer  string `gorm:"size:512" json:"userAnswer"`
	IsCorrect   bool   `gorm:"default:false" json:"isCorrect"`
	Attempted   bool   `gorm:"default:false" json:"attempted"`
	// SkipCount 跳过次数计数器
	SkipCount int `gorm:"default:0" json:"skipCount"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
