package controller

import (
	"errors"

	"easytest_backend/internal/service"
	"easytest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GroupController struct {
	Service *service.GroupService
}

func NewGroupController(svc *service.GroupService) *GroupController {
	return &GroupController{Service: svc}
}

// @Summary 分组列表
// @Tags 学员管理
// @Security BearerAuth
// @Router /api/staff/groups [get]
func (c *GroupController) List(ctx *gin.Context) {
	groups, err := c.Service.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, groups)
}

// @Summary 创建分组
// @Tags 学员管理
// @Security BearerAuth
// @Router /api/staff/groups [post]
func (c *GroupController) Create(ctx *gin.Context) {
	var req service.GroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	g, err := c.Service.Create(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, g)
}

// @Summary 修改分组
// @Tags 学员管理
// @Security BearerAuth
// @Router /api/staff/groups/{id} [put]
func (c *GroupController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.GroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	g, err := c.Service.Update(id, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, g)
}

// @Summary 删除分组，组内学员回归未分组
// @Tags 学员管理
// @Security BearerAuth
// @Router /api/staff/groups/{id} [delete]
func (c *GroupController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.Service.Delete(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 学员列表
// @Tags 学员管理
// @Security BearerAuth
// @Router /api/staff/students [get]
func (c *GroupController) ListStudents(ctx *gin.Context) {
	students, err := c.Service.ListStudents()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, students)
}

type AssignStudentRequest struct {
	GroupID *uint `json:"groupId"`
}

// @Summary 调整学员分组
// @Tags 学员管理
// @Security BearerAuth
// @Router /api/staff/students/{id}/group [put]
func (c *GroupController) AssignStudent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req AssignStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.AssignStudent(id, req.GroupID); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
