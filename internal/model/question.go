package model

// 题型标签。判题策略按标签在 scoring 包注册，新增题型不改判题流程。
const (
	QTypeSelect = "select"
	QTypeSort   = "sort"
)

// Question 题目，可被多份测试复用
// swagger:model Question
type Question struct {
	BaseModel
	QType       string   `gorm:"size:20;not null;default:'select'" json:"qType"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Answers     []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// Answer 备选答案。IsCorrect 用于 select 题，Position 用于 sort 题。
type Answer struct {
	BaseModel
	QuestionID  uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	Description string `gorm:"size:255;not null" json:"description"`
	IsCorrect   bool   `gorm:"default:false" json:"isCorrect"`
	Position    int    `gorm:"default:0" json:"position"`
}

func (Answer) TableName() string {
	return "answers"
}
