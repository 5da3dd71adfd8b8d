package repository

import (
	"easytest_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

// FindWithAnswers 题目连同备选答案
func (r *QuestionRepository) FindWithAnswers(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.Preload("Answers").First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) List() ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Preload("Answers").Order("created_at desc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.TestQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}

func (r *QuestionRepository) CreateAnswer(a *model.Answer) error {
	return r.DB.Create(a).Error
}
