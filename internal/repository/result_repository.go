package repository

import (
	"easytest_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) Create(result *model.Result) error {
	return r.DB.Create(result).Error
}

func (r *ResultRepository) Save(result *model.Result) error {
	return r.DB.Save(result).Error
}

// FindByUserAndTest 仅限本人记录的查询，越权访问在服务层拦截
func (r *ResultRepository) FindByID(id uint) (*model.Result, error) {
	var res model.Result
	if err := r.DB.First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResultRepository) FindByUserAndTest(userID, testID uint) (*model.Result, error) {
	var res model.Result
	err := r.DB.Where("owner_id = ? AND test_id = ?", userID, testID).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FindByUserAndTestLocked 行锁读取，用于提交事务内串行化同一 Result 的并发变更。
// sqlite 不支持 FOR UPDATE，且写事务本身互斥，跳过锁子句。
func (r *ResultRepository) FindByUserAndTestLocked(userID, testID uint) (*model.Result, error) {
	tx := r.DB
	if tx.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var res model.Result
	err := tx.Where("owner_id = ? AND test_id = ?", userID, testID).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResultRepository) ListByUser(userID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.DB.Where("owner_id = ?", userID).Order("created_at desc").Find(&results).Error
	return results, err
}

// HardDeleteByUserAndTest 物理删除 (owner, test) 的全部旧记录，
// user_answers 级联删除。重考即覆盖，不留软删痕迹。
func (r *ResultRepository) HardDeleteByUserAndTest(userID, testID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var resultIDs []uint
		if err := tx.Model(&model.Result{}).Unscoped().
			Where("owner_id = ? AND test_id = ?", userID, testID).
			Pluck("id", &resultIDs).Error; err != nil {
			return err
		}
		if len(resultIDs) == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("result_id IN ?", resultIDs).Delete(&model.UserAnswer{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", resultIDs).Delete(&model.Result{}).Error
	})
}

func (r *ResultRepository) CreateUserAnswers(answers []model.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.DB.Create(&answers).Error
}

func (r *ResultRepository) CreateUserAnswer(ua *model.UserAnswer) error {
	return r.DB.Create(ua).Error
}

func (r *ResultRepository) SaveUserAnswer(ua *model.UserAnswer) error {
	return r.DB.Save(ua).Error
}

func (r *ResultRepository) FindUserAnswer(resultID, questionID uint) (*model.UserAnswer, error) {
	var ua model.UserAnswer
	err := r.DB.Where("result_id = ? AND question_id = ?", resultID, questionID).First(&ua).Error
	if err != nil {
		return nil, err
	}
	return &ua, nil
}

// FirstUnattempted 出题顺序上第一道尚未作答的题；没有则整卷答完
func (r *ResultRepository) FirstUnattempted(resultID uint) (*model.UserAnswer, error) {
	var ua model.UserAnswer
	err := r.DB.Where("result_id = ? AND attempted = ?", resultID, false).
		Order("position asc").First(&ua).Error
	if err != nil {
		return nil, err
	}
	return &ua, nil
}

func (r *ResultRepository) ListUserAnswers(resultID uint) ([]model.UserAnswer, error) {
	var uas []model.UserAnswer
	err := r.DB.Where("result_id = ?", resultID).Order("position asc").Find(&uas).Error
	return uas, err
}

func (r *ResultRepository) CountCorrect(resultID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserAnswer{}).
		Where("result_id = ? AND is_correct = ?", resultID, true).Count(&count).Error
	return count, err
}

// CountIncorrect 答错数只计已作答的题，跳过的题不算错
func (r *ResultRepository) CountIncorrect(resultID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserAnswer{}).
		Where("result_id = ? AND is_correct = ? AND attempted = ?", resultID, false, true).
		Count(&count).Error
	return count, err
}

func (r *ResultRepository) ListIncorrect(resultID uint) ([]model.UserAnswer, error) {
	var uas []model.UserAnswer
	err := r.DB.Where("result_id = ? AND is_correct = ? AND attempted = ?", resultID, false, true).
		Order("position asc").Find(&uas).Error
	return uas, err
}
