package service

import (
	"errors"

	"easytest_backend/internal/model"
	"easytest_backend/internal/repository"
	"easytest_backend/internal/util"

	"gorm.io/gorm"
)

// GroupService 学员分组管理
type GroupService struct {
	Repo     *repository.GroupRepository
	UserRepo *repository.UserRepository
}

func NewGroupService(repo *repository.GroupRepository, userRepo *repository.UserRepository) *GroupService {
	return &GroupService{Repo: repo, UserRepo: userRepo}
}

type GroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *GroupService) Create(req GroupRequest) (*model.Group, error) {
	g := &model.Group{Name: req.Name, Description: req.Description}
	if err := s.Repo.Create(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GroupService) Update(id uint, req GroupRequest) (*model.Group, error) {
	g, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	g.Name = req.Name
	g.Description = req.Description
	if err := s.Repo.Update(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GroupService) List() ([]model.Group, error) {
	return s.Repo.List()
}

func (s *GroupService) Delete(id uint) error {
	return s.Repo.Delete(id)
}

func (s *GroupService) ListStudents() ([]model.User, error) {
	return s.UserRepo.ListStudents()
}

// AssignStudent 把学员挪到指定分组，groupID 为 nil 表示移出分组
func (s *GroupService) AssignStudent(studentID uint, groupID *uint) error {
	user, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return err
	}
	user.GroupID = groupID
	return s.UserRepo.Update(user)
}
