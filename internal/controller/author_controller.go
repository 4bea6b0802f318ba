package controller

import (
	"errors"

	"birthday_quest_backend/internal/service"
	"birthday_quest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthorController 出题后台：题目/分类/剧本管理、媒体上传、题库体检与导入
type AuthorController struct {
	QuestionService *service.QuestionService
	PackService     *service.PackService
	StorageService  *service.StorageService
}

func NewAuthorController(questionService *service.QuestionService, packService *service.PackService, storageService *service.StorageService) *AuthorController {
	return &AuthorController{
		QuestionService: questionService,
		PackService:     packService,
		StorageService:  storageService,
	}
}

// ListQuestions godoc
// @Summary 题目列表
// @Tags 出题后台
// @Produce  json
// @Security BearerAuth
// @Param   categoryId query int false "按分类过滤"
// @Param   status query string false "按状态过滤"
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/author/questions [get]
func (c *AuthorController) ListQuestions(ctx *gin.Context) {
	categoryID := util.MustParseUint(ctx.Query("categoryId"))
	status := ctx.Query("status")
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	limit := util.ParseIntDefault(ctx.Query("limit"), 20)

	questions, total, err := c.QuestionService.List(categoryID, status, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  questions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// CreateQuestion godoc
// @Summary 新建题目
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.QuestionInput true "题目内容"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/author/questions [post]
func (c *AuthorController) CreateQuestion(ctx *gin.Context) {
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.Create(&input)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Param   body body service.QuestionInput true "题目内容"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/author/questions/{id} [put]
func (c *AuthorController) UpdateQuestion(ctx *gin.Context) {
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.Update(util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, q)
}

// UpdateStatusRequest 快捷修改题目状态
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=complete draft needs-media disabled"`
}

// UpdateQuestionStatus godoc
// @Summary 修改题目状态
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Param   body body UpdateStatusRequest true "目标状态"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/author/questions/{id}/status [patch]
func (c *AuthorController) UpdateQuestionStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.UpdateStatus(util.MustParseUint(ctx.Param("id")), req.Status)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 出题后台
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/author/questions/{id} [delete]
func (c *AuthorController) DeleteQuestion(ctx *gin.Context) {
	if err := c.QuestionService.Delete(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// ListCategories godoc
// @Summary 分类列表（含题目）
// @Tags 出题后台
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Category}
// @Router /api/author/categories [get]
func (c *AuthorController) ListCategories(ctx *gin.Context) {
	cats, err := c.QuestionService.ListCategories()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, cats)
}

// CreateCategoryRequest 新建分类
// swagger:model CreateCategoryRequest
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

// CreateCategory godoc
// @Summary 新建分类
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body CreateCategoryRequest true "分类信息"
// @Success 201 {object} util.Response{data=model.Category}
// @Failure 409 {object} util.Response "分类已存在"
// @Router /api/author/categories [post]
func (c *AuthorController) CreateCategory(ctx *gin.Context) {
	var req CreateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cat, err := c.QuestionService.CreateCategory(req.Name, req.Icon)
	if err != nil {
		util.Conflict(ctx, err.Error())
		return
	}
	util.Created(ctx, cat)
}

// UpdateCategory godoc
// @Summary 更新分类
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "分类 ID"
// @Param   body body CreateCategoryRequest true "分类信息"
// @Success 200 {object} util.Response{data=model.Category}
// @Failure 404 {object} util.Response "分类不存在"
// @Router /api/author/categories/{id} [put]
func (c *AuthorController) UpdateCategory(ctx *gin.Context) {
	var req CreateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cat, err := c.QuestionService.UpdateCategory(util.MustParseUint(ctx.Param("id")), req.Name, req.Icon)
	if err != nil {
		if errors.Is(err, util.ErrCategoryNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, cat)
}

// CreateCharacter godoc
// @Summary 新建可选角色
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CharacterInput true "角色信息"
// @Success 201 {object} util.Response{data=model.Character}
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/author/characters [post]
func (c *AuthorController) CreateCharacter(ctx *gin.Context) {
	var input service.CharacterInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ch, err := c.QuestionService.CreateCharacter(&input)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, ch)
}

// UpdateCharacter godoc
// @Summary 更新可选角色
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "角色 ID"
// @Param   body body service.CharacterInput true "角色信息"
// @Success 200 {object} util.Response{data=model.Character}
// @Failure 404 {object} util.Response "角色不存在"
// @Router /api/author/characters/{id} [put]
func (c *AuthorController) UpdateCharacter(ctx *gin.Context) {
	var input service.CharacterInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ch, err := c.QuestionService.UpdateCharacter(util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		if errors.Is(err, util.ErrCharacterNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, ch)
}

// UpsertStory godoc
// @Summary 更新剧本片段
// @Description 按 kind+act 覆盖写入开场/幕/胜利片段
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.StoryInput true "剧本片段"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/author/story [put]
func (c *AuthorController) UpsertStory(ctx *gin.Context) {
	var input service.StoryInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.QuestionService.UpsertStory(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, nil)
}

// ValidatePack godoc
// @Summary 题库体检
// @Description 扫描全部题目的答案与媒体问题，媒体文件用 ffprobe 探测
// @Tags 出题后台
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ValidationReport}
// @Router /api/author/pack/validate [get]
func (c *AuthorController) ValidatePack(ctx *gin.Context) {
	report, err := c.PackService.Validate()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// ImportPackRequest 题库导入请求，路径缺省时用配置里的清单路径
// swagger:model ImportPackRequest
type ImportPackRequest struct {
	Path string `json:"path"`
}

// ImportPack godoc
// @Summary 导入题库清单
// @Description 整体替换数据库中的题库并重新装配，失败时线上保持旧版本
// @Tags 出题后台
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body ImportPackRequest false "清单路径"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "清单非法"
// @Router /api/author/pack/import [post]
func (c *AuthorController) ImportPack(ctx *gin.Context) {
	var req ImportPackRequest
	_ = ctx.ShouldBindJSON(&req)
	path := req.Path
	if path == "" {
		path = c.PackService.Cfg.Game.PackPath
	}
	if path == "" {
		util.BadRequest(ctx, "未指定清单路径")
		return
	}

	if err := c.PackService.ImportManifest(path); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, nil)
}

// ReloadPack godoc
// @Summary 重新装配题库
// @Description 不动数据库，仅从当前数据重新装配线上题库
// @Tags 出题后台
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "装配失败"
// @Router /api/author/pack/reload [post]
func (c *AuthorController) ReloadPack(ctx *gin.Context) {
	if err := c.PackService.Rebuild(); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, nil)
}

// UploadMedia godoc
// @Summary 上传题目媒体
// @Description 图片/音频/视频，文件名用 UUID 重写，视频生成缩略图
// @Tags 出题后台
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "媒体文件"
// @Success 201 {object} util.Response{data=service.MediaUploadResult}
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/author/media [post]
func (c *AuthorController) UploadMedia(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少文件")
		return
	}

	result, err := c.StorageService.UploadMedia(ctx.Request.Context(), file)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, result)
}
