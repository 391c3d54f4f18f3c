package handler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/discussboard/internal/service"
	"github.com/gin-gonic/gin"
)

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := strings.TrimSpace(c.Param(key))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// discussionID 解析路径中的讨论 ID，格式错误与记录不存在一样按未找到处理。
func discussionID(c *gin.Context) (uint, error) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		return 0, service.ErrDiscussionNotFound
	}
	return id, nil
}

// discussionParams 从表单中提取可编辑字段，作者只在创建时由会话绑定。
func discussionParams(c *gin.Context) service.DiscussionInput {
	return service.DiscussionInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Tags:        c.PostFormArray("tags"),
	}
}

func discussionPath(id uint) string {
	return "/discussions/" + strconv.FormatUint(uint64(id), 10)
}

// formPath 返回提交失败时应返回的表单地址。
func formPath(c *gin.Context) string {
	if raw := c.Param("id"); raw != "" {
		return "/discussions/" + url.PathEscape(raw) + "/edit"
	}
	return "/discussions/new"
}
