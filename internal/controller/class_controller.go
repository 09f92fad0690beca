package controller

import (
	"errors"
	"strconv"

	"classroom_backend/internal/repository"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ClassController struct {
	classes     *repository.ClassRepository
	transcripts *repository.TranscriptionRepository
}

func NewClassController(classes *repository.ClassRepository, transcripts *repository.TranscriptionRepository) *ClassController {
	return &ClassController{classes: classes, transcripts: transcripts}
}

// @Summary 查询课堂
// @Description 按id获取一节课的元数据
// @Tags 课堂
// @Produce json
// @Param classId path int true "课堂ID"
// @Success 200 {object} util.Response
// @Router /class/{classId} [get]
func (c *ClassController) GetClass(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("classId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid class id")
		return
	}

	class, err := c.classes.GetByID(uint(id))
	if errors.Is(err, util.ErrClassNotFound) {
		util.NotFound(ctx)
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, class)
}

// @Summary 课堂转写列表
// @Tags 课堂
// @Produce json
// @Param classId path int true "课堂ID"
// @Success 200 {object} util.Response
// @Router /class/{classId}/transcriptions [get]
func (c *ClassController) GetTranscriptions(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("classId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid class id")
		return
	}

	entries, err := c.transcripts.ListByClass(uint(id))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"transcriptions": entries})
}
