package repository

import (
	"easytest_backend/internal/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	DB *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{DB: db}
}

func (r *GroupRepository) Create(group *model.Group) error {
	return r.DB.Create(group).Error
}

func (r *GroupRepository) FindByID(id uint) (*model.Group, error) {
	var g model.Group
	if err := r.DB.First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) List() ([]model.Group, error) {
	var groups []model.Group
	err := r.DB.Order("name asc").Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) Update(group *model.Group) error {
	return r.DB.Save(group).Error
}

func (r *GroupRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		// 组内学员回归未分组状态
		if err := tx.Model(&model.User{}).Where("group_id = ?", id).Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Group{}, id).Error
	})
}
