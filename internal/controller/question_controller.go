package controller

import (
	"encoding/json"
	"errors"

	"easytest_backend/internal/service"
	"easytest_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type QuestionController struct {
	Service  *service.QuestionService
	Importer *service.ImportService
	Storage  *service.StorageService
}

func NewQuestionController(svc *service.QuestionService, importer *service.ImportService, storage *service.StorageService) *QuestionController {
	return &QuestionController{Service: svc, Importer: importer, Storage: storage}
}

// @Summary 题库列表
// @Tags 题目管理
// @Security BearerAuth
// @Router /api/staff/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	qs, err := c.Service.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, qs)
}

// @Summary 创建题目（含答案）
// @Tags 题目管理
// @Security BearerAuth
// @Router /api/staff/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.Service.Create(req)
	if err != nil {
		if errors.Is(err, util.ErrUnknownQuestionType) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// @Summary 题目详情
// @Tags 题目管理
// @Security BearerAuth
// @Router /api/staff/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	q, err := c.Service.Get(id)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// @Summary 删除题目
// @Tags 题目管理
// @Security BearerAuth
// @Router /api/staff/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
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

// @Summary 批量导入题目（JSON 文档上传，整批原子）
// @Tags 题目管理
// @Security BearerAuth
// @Router /api/staff/questions/import [post]
func (c *QuestionController) Import(ctx *gin.Context) {
	raw, ok := readUpload(ctx)
	if !ok {
		return
	}

	var doc map[string]service.QuestionImport
	if err := json.Unmarshal(raw, &doc); err != nil {
		util.BadRequest(ctx, "malformed import document: "+err.Error())
		return
	}

	if err := c.Importer.ImportQuestions(doc); err != nil {
		if errors.Is(err, util.ErrUnknownQuestionType) || errors.Is(err, gorm.ErrInvalidData) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	c.Storage.ArchiveImport(ctx.Request.Context(), "questions", raw)
	util.Created(ctx, gin.H{"imported": len(doc)})
}
