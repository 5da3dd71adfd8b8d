package repository

import (
	"easytest_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var t model.Test
	if err := r.DB.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TestRepository) List() ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Order("created_at desc").Find(&tests).Error
	return tests, err
}

func (r *TestRepository) ListByOwner(ownerID uint) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&tests).Error
	return tests, err
}

func (r *TestRepository) Update(test *model.Test) error {
	return r.DB.Save(test).Error
}

func (r *TestRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", id).Delete(&model.TestQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Test{}, id).Error
	})
}

// AttachQuestions 以给定顺序把题目挂到测试上，position 从 1 起连续编号
func (r *TestRepository) AttachQuestions(testID uint, questionIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", testID).Delete(&model.TestQuestion{}).Error; err != nil {
			return err
		}
		for i, qid := range questionIDs {
			tq := model.TestQuestion{TestID: testID, QuestionID: qid, Position: i + 1}
			if err := tx.Create(&tq).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// QuestionsInOrder 按联结表 position 返回测试题目，答案一并预载
func (r *TestRepository) QuestionsInOrder(testID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.
		Joins("JOIN test_questions ON test_questions.question_id = questions.id").
		Where("test_questions.test_id = ?", testID).
		Order("test_questions.position asc").
		Preload("Answers").
		Find(&questions).Error
	return questions, err
}

// QuestionPosition 题目在测试里的出题位置；不属于该测试返回 ErrRecordNotFound
func (r *TestRepository) QuestionPosition(testID, questionID uint) (int, error) {
	var tq model.TestQuestion
	err := r.DB.Where("test_id = ? AND question_id = ?", testID, questionID).First(&tq).Error
	if err != nil {
		return 0, err
	}
	return tq.Position, nil
}

func (r *TestRepository) CountQuestions(testID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestQuestion{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}

// TestCategory related methods

func (r *TestRepository) CreateCategory(c *model.TestCategory) error {
	return r.DB.Create(c).Error
}

func (r *TestRepository) FindCategoryByID(id uint) (*model.TestCategory, error) {
	var c model.TestCategory
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *TestRepository) ListCategories() ([]model.TestCategory, error) {
	var cs []model.TestCategory
	err := r.DB.Order("name asc").Find(&cs).Error
	return cs, err
}

func (r *TestRepository) UpdateCategory(c *model.TestCategory) error {
	return r.DB.Save(c).Error
}

func (r *TestRepository) DeleteCategory(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Test{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TestCategory{}, id).Error
	})
}
