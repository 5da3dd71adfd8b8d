package service

import (
	"easytest_backend/internal/model"
	"easytest_backend/internal/scoring"
	"easytest_backend/internal/util"
	"easytest_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportService 批量导入测试/题目/答案。
// 整批一个事务：任何一条记录失败，整批回滚，外部观察不到部分导入。
type ImportService struct {
	DB *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{DB: db}
}

// AnswerImport 导入文档中的一条答案
type AnswerImport struct {
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
	Position    int    `json:"position"`
}

// QuestionImport 导入文档中的一道题，answers 在建题前剥离，
// 建完回指父记录
type QuestionImport struct {
	QType       string         `json:"q_type"`
	Description string         `json:"description"`
	Answers     []AnswerImport `json:"answers"`
}

// TestImport 导入文档中的一份测试
type TestImport struct {
	Title                  string           `json:"title"`
	Description            string           `json:"description"`
	TimeLimitSeconds       int              `json:"time_limit_seconds"`
	RequiredCorrectAnswers int              `json:"required_correct_answers"`
	Questions              []QuestionImport `json:"questions"`
}

// ImportQuestions 批量建题。文档键仅作分组名，不落库。
func (s *ImportService) ImportQuestions(doc map[string]QuestionImport) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, rec := range doc {
			if _, err := createQuestion(tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("question import rolled back", zap.Int("records", len(doc)), zap.Error(err))
		return err
	}
	logger.Log.Info("questions imported", zap.Int("records", len(doc)))
	return nil
}

// ImportTests 批量建测试，嵌套题目和答案一并建档并挂接
func (s *ImportService) ImportTests(doc map[string]TestImport, ownerID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, rec := range doc {
			if rec.RequiredCorrectAnswers > len(rec.Questions) {
				return util.ErrThresholdTooHigh
			}

			test := &model.Test{
				OwnerID:                ownerID,
				Title:                  rec.Title,
				Description:            rec.Description,
				TimeLimitSeconds:       rec.TimeLimitSeconds,
				RequiredCorrectAnswers: rec.RequiredCorrectAnswers,
			}
			if err := tx.Create(test).Error; err != nil {
				return err
			}

			for i, qrec := range rec.Questions {
				q, err := createQuestion(tx, qrec)
				if err != nil {
					return err
				}
				tq := model.TestQuestion{TestID: test.ID, QuestionID: q.ID, Position: i + 1}
				if err := tx.Create(&tq).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("test import rolled back", zap.Int("records", len(doc)), zap.Error(err))
		return err
	}
	logger.Log.Info("tests imported", zap.Int("records", len(doc)), zap.Uint("ownerId", ownerID))
	return nil
}

func createQuestion(tx *gorm.DB, rec QuestionImport) (*model.Question, error) {
	if !scoring.Known(rec.QType) {
		return nil, util.ErrUnknownQuestionType
	}
	if rec.Description == "" {
		return nil, gorm.ErrInvalidData
	}

	q := &model.Question{
		QType:       rec.QType,
		Description: rec.Description,
	}
	if err := tx.Create(q).Error; err != nil {
		return nil, err
	}

	for _, arec := range rec.Answers {
		a := model.Answer{
			QuestionID:  q.ID,
			Description: arec.Description,
			IsCorrect:   arec.IsCorrect,
			Position:    arec.Position,
		}
		if err := tx.Create(&a).Error; err != nil {
			return nil, err
		}
	}
	return q, nil
}
