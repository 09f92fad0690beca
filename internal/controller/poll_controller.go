package controller

import (
	"strconv"

	"classroom_backend/internal/repository"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PollController struct {
	polls *repository.PollRepository
}

func NewPollController(polls *repository.PollRepository) *PollController {
	return &PollController{polls: polls}
}

// @Summary 投票结果
// @Description 实时重算的计票，包含收盘后补来的作答
// @Tags 投票
// @Produce json
// @Param pollId path int true "投票ID"
// @Success 200 {object} util.Response
// @Router /poll/{pollId}/results [get]
func (c *PollController) GetResults(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("pollId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid poll id")
		return
	}

	results, err := c.polls.Results(uint(id))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"poll_id": id,
		"results": results,
	})
}
