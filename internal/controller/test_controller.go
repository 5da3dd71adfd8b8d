package controller

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"easytest_backend/internal/service"
	"easytest_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TestController struct {
	Service  *service.TestService
	Importer *service.ImportService
	Storage  *service.StorageService
}

func NewTestController(svc *service.TestService, importer *service.ImportService, storage *service.StorageService) *TestController {
	return &TestController{Service: svc, Importer: importer, Storage: storage}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		util.BadRequest(ctx, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// @Summary 可参加的测试列表
// @Tags 测试
// @Security BearerAuth
// @Router /api/tests [get]
func (c *TestController) List(ctx *gin.Context) {
	tests, err := c.Service.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// @Summary 本人创建的测试列表
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/tests [get]
func (c *TestController) ListOwn(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	tests, err := c.Service.ListByOwner(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// @Summary 测试详情（含出题顺序）
// @Tags 测试
// @Security BearerAuth
// @Router /api/tests/{id} [get]
func (c *TestController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	test, err := c.Service.Get(id)
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	questions, err := c.Service.Questions(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	test.Questions = nil
	util.Success(ctx, gin.H{"test": test, "questionCount": len(questions)})
}

// @Summary 创建测试
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/tests [post]
func (c *TestController) Create(ctx *gin.Context) {
	var req service.TestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	test, err := c.Service.Create(claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrThresholdTooHigh) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// @Summary 修改测试
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/tests/{id} [put]
func (c *TestController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.TestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	test, err := c.Service.Update(claims.UserID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrThresholdTooHigh):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, test)
}

// @Summary 删除测试
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/tests/{id} [delete]
func (c *TestController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	if err := c.Service.Delete(claims.UserID, id); err != nil {
		switch {
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// @Summary 批量导入测试（JSON 文档上传，整批原子）
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/tests/import [post]
func (c *TestController) Import(ctx *gin.Context) {
	raw, ok := readUpload(ctx)
	if !ok {
		return
	}

	var doc map[string]service.TestImport
	if err := json.Unmarshal(raw, &doc); err != nil {
		util.BadRequest(ctx, "malformed import document: "+err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if err := c.Importer.ImportTests(doc, claims.UserID); err != nil {
		if errors.Is(err, util.ErrUnknownQuestionType) || errors.Is(err, util.ErrThresholdTooHigh) || errors.Is(err, gorm.ErrInvalidData) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	c.Storage.ArchiveImport(ctx.Request.Context(), "tests", raw)
	util.Created(ctx, gin.H{"imported": len(doc)})
}

// Category endpoints

// @Summary 分类列表
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/categories [get]
func (c *TestController) ListCategories(ctx *gin.Context) {
	cs, err := c.Service.ListCategories()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, cs)
}

// @Summary 创建分类
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/categories [post]
func (c *TestController) CreateCategory(ctx *gin.Context) {
	var req service.TestCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cat, err := c.Service.CreateCategory(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, cat)
}

// @Summary 修改分类
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/categories/{id} [put]
func (c *TestController) UpdateCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.TestCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cat, err := c.Service.UpdateCategory(id, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, cat)
}

// @Summary 删除分类
// @Tags 测试管理
// @Security BearerAuth
// @Router /api/staff/categories/{id} [delete]
func (c *TestController) DeleteCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.Service.DeleteCategory(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// readUpload 取 multipart 的 file 字段内容
func readUpload(ctx *gin.Context) ([]byte, bool) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return nil, false
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return nil, false
	}
	return raw, true
}
