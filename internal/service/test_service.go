package service

import (
	"errors"

	"easytest_backend/internal/model"
	"easytest_backend/internal/repository"
	"easytest_backend/internal/util"

	"gorm.io/gorm"
)

// TestService 测试卷与分类的日常维护。没有业务不变量的纯记录管理，
// 唯一校验是通过线不得超过题目数。
type TestService struct {
	Repo *repository.TestRepository
}

func NewTestService(repo *repository.TestRepository) *TestService {
	return &TestService{Repo: repo}
}

type TestRequest struct {
	Title                  string `json:"title" binding:"required"`
	Description            string `json:"description"`
	CategoryID             *uint  `json:"categoryId"`
	TimeLimitSeconds       int    `json:"timeLimitSeconds"`
	RequiredCorrectAnswers int    `json:"requiredCorrectAnswers"`
	QuestionIDs            []uint `json:"questionIds"`
}

func (s *TestService) Create(ownerID uint, req TestRequest) (*model.Test, error) {
	if req.RequiredCorrectAnswers > len(req.QuestionIDs) {
		return nil, util.ErrThresholdTooHigh
	}

	test := &model.Test{
		OwnerID:                ownerID,
		CategoryID:             req.CategoryID,
		Title:                  req.Title,
		Description:            req.Description,
		TimeLimitSeconds:       req.TimeLimitSeconds,
		RequiredCorrectAnswers: req.RequiredCorrectAnswers,
	}
	if err := s.Repo.Create(test); err != nil {
		return nil, err
	}
	if len(req.QuestionIDs) > 0 {
		if err := s.Repo.AttachQuestions(test.ID, req.QuestionIDs); err != nil {
			return nil, err
		}
	}
	return test, nil
}

func (s *TestService) Update(ownerID, id uint, req TestRequest) (*model.Test, error) {
	test, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	if test.OwnerID != ownerID {
		return nil, util.ErrPermissionDenied
	}

	questionCount := len(req.QuestionIDs)
	if questionCount == 0 {
		count, err := s.Repo.CountQuestions(id)
		if err != nil {
			return nil, err
		}
		questionCount = int(count)
	}
	if req.RequiredCorrectAnswers > questionCount {
		return nil, util.ErrThresholdTooHigh
	}

	test.Title = req.Title
	test.Description = req.Description
	test.CategoryID = req.CategoryID
	test.TimeLimitSeconds = req.TimeLimitSeconds
	test.RequiredCorrectAnswers = req.RequiredCorrectAnswers
	if err := s.Repo.Update(test); err != nil {
		return nil, err
	}
	if len(req.QuestionIDs) > 0 {
		if err := s.Repo.AttachQuestions(test.ID, req.QuestionIDs); err != nil {
			return nil, err
		}
	}
	return test, nil
}

func (s *TestService) Delete(ownerID, id uint) error {
	test, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTestNotFound
		}
		return err
	}
	if test.OwnerID != ownerID {
		return util.ErrPermissionDenied
	}
	return s.Repo.Delete(id)
}

func (s *TestService) Get(id uint) (*model.Test, error) {
	test, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}
	return test, nil
}

func (s *TestService) List() ([]model.Test, error) {
	return s.Repo.List()
}

func (s *TestService) ListByOwner(ownerID uint) ([]model.Test, error) {
	return s.Repo.ListByOwner(ownerID)
}

func (s *TestService) Questions(testID uint) ([]model.Question, error) {
	return s.Repo.QuestionsInOrder(testID)
}

type TestCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *TestService) CreateCategory(req TestCategoryRequest) (*model.TestCategory, error) {
	c := &model.TestCategory{Name: req.Name, Description: req.Description}
	if err := s.Repo.CreateCategory(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TestService) UpdateCategory(id uint, req TestCategoryRequest) (*model.TestCategory, error) {
	c, err := s.Repo.FindCategoryByID(id)
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	c.Description = req.Description
	if err := s.Repo.UpdateCategory(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TestService) ListCategories() ([]model.TestCategory, error) {
	return s.Repo.ListCategories()
}

func (s *TestService) DeleteCategory(id uint) error {
	return s.Repo.DeleteCategory(id)
}
