package service

import (
	"errors"

	"easytest_backend/internal/model"
	"easytest_backend/internal/repository"
	"easytest_backend/internal/scoring"
	"easytest_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionService struct {
	Repo *repository.QuestionRepository
}

func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{Repo: repo}
}

type AnswerRequest struct {
	Description string `json:"description" binding:"required"`
	IsCorrect   bool   `json:"isCorrect"`
	Position    int    `json:"position"`
}

type QuestionRequest struct {
	QType       string          `json:"qType" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Answers     []AnswerRequest `json:"answers"`
}

func (s *QuestionService) Create(req QuestionRequest) (*model.Question, error) {
	if !scoring.Known(req.QType) {
		return nil, util.ErrUnknownQuestionType
	}

	q := &model.Question{
		QType:       req.QType,
		Description: req.Description,
		Answers:     make([]model.Answer, len(req.Answers)),
	}
	for i, a := range req.Answers {
		q.Answers[i] = model.Answer{
			Description: a.Description,
			IsCorrect:   a.IsCorrect,
			Position:    a.Position,
		}
	}
	if err := s.Repo.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Get(id uint) (*model.Question, error) {
	q, err := s.Repo.FindWithAnswers(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) List() ([]model.Question, error) {
	return s.Repo.List()
}

func (s *QuestionService) Delete(id uint) error {
	return s.Repo.Delete(id)
}
