package router

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-agent-go/internal/api/handler"
	"resume-agent-go/internal/api/middleware"
	"resume-agent-go/internal/config"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Auth     *handler.AuthHandler
	Resume   *handler.ResumeHandler
	Analysis *handler.AnalysisHandler
	Job      *handler.JobHandler
}

// RegisterRoutes 注册API路由
func RegisterRoutes(h *server.Hertz, cfg *config.Config, handlers Handlers) {
	h.Use(middleware.RequestID())

	api := h.Group("/api/v1")

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	// 认证（公开）
	auth := api.Group("/auth")
	auth.POST("/register", func(c context.Context, ctx *app.RequestContext) {
		var req handler.RegisterRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
			return
		}
		resp, err := handlers.Auth.Register(c, req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusCreated, "注册成功", resp)
	})

	auth.POST("/login", func(c context.Context, ctx *app.RequestContext) {
		var req handler.LoginRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
			return
		}
		resp, err := handlers.Auth.Login(c, req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "登录成功", resp)
	})

	// 以下路由需要认证
	protected := api.Group("", middleware.JWTAuth(cfg.JWT))

	protected.GET("/auth/me", func(c context.Context, ctx *app.RequestContext) {
		info, err := handlers.Auth.Me(c, middleware.GetUserID(ctx))
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "ok", info)
	})

	// 简历管理
	resumes := protected.Group("/resumes")

	resumes.POST("", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			handler.Fail(ctx, handler.BadRequest("文件未找到"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			handler.Fail(ctx, handler.Internal("打开上传文件失败", err))
			return
		}
		defer file.Close()

		contentType := fileHeader.Header.Get("Content-Type")
		resp, err := handlers.Resume.Upload(c, middleware.GetUserID(ctx),
			file, fileHeader.Size, fileHeader.Filename, contentType)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusCreated, "上传成功", resp)
	})

	resumes.GET("", func(c context.Context, ctx *app.RequestContext) {
		page, _ := strconv.Atoi(ctx.Query("page"))
		limit, _ := strconv.Atoi(ctx.Query("limit"))
		resp, err := handlers.Resume.List(c, middleware.GetUserID(ctx), page, limit)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "ok", resp)
	})

	resumes.GET("/:id", func(c context.Context, ctx *app.RequestContext) {
		resp, err := handlers.Resume.Get(c, middleware.GetUserID(ctx), ctx.Param("id"))
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "ok", resp)
	})

	resumes.PUT("/:id", func(c context.Context, ctx *app.RequestContext) {
		var req handler.UpdateResumeRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
			return
		}
		resp, err := handlers.Resume.Update(c, middleware.GetUserID(ctx), ctx.Param("id"), req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "更新成功", resp)
	})

	resumes.DELETE("/:id", func(c context.Context, ctx *app.RequestContext) {
		if err := handlers.Resume.Delete(c, middleware.GetUserID(ctx), ctx.Param("id")); err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "删除成功", nil)
	})

	resumes.GET("/:id/download", func(c context.Context, ctx *app.RequestContext) {
		resp, err := handlers.Resume.Download(c, middleware.GetUserID(ctx), ctx.Param("id"))
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "ok", resp)
	})

	// 分析与优化
	resumes.POST("/:id/analyze", func(c context.Context, ctx *app.RequestContext) {
		var req handler.AnalyzeRequest
		if len(ctx.Request.Body()) > 0 {
			if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
				handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
				return
			}
		}
		resp, err := handlers.Analysis.Analyze(c, middleware.GetUserID(ctx), ctx.Param("id"), req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusCreated, "分析完成", resp)
	})

	resumes.GET("/:id/analyze", func(c context.Context, ctx *app.RequestContext) {
		resp, err := handlers.Analysis.GetAnalysis(c, middleware.GetUserID(ctx), ctx.Param("id"))
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "ok", resp)
	})

	resumes.POST("/:id/match", func(c context.Context, ctx *app.RequestContext) {
		var req handler.MatchRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
			return
		}
		resp, err := handlers.Analysis.Match(c, middleware.GetUserID(ctx), ctx.Param("id"), req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "匹配完成", resp)
	})

	resumes.POST("/:id/optimize", func(c context.Context, ctx *app.RequestContext) {
		var req handler.OptimizeRequest
		if len(ctx.Request.Body()) > 0 {
			if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
				handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
				return
			}
		}
		resp, err := handlers.Analysis.Optimize(c, middleware.GetUserID(ctx), ctx.Param("id"), req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusCreated, "优化完成", resp)
	})

	resumes.POST("/:id/cover-letter", func(c context.Context, ctx *app.RequestContext) {
		var req handler.CoverLetterRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
			return
		}
		resp, err := handlers.Analysis.CoverLetter(c, middleware.GetUserID(ctx), ctx.Param("id"), req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusCreated, "求职信生成完成", resp)
	})

	resumes.POST("/:id/match-jobs", func(c context.Context, ctx *app.RequestContext) {
		var req handler.MatchJobsRequest
		if len(ctx.Request.Body()) > 0 {
			if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
				handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
				return
			}
		}
		resp, err := handlers.Analysis.MatchJobs(c, middleware.GetUserID(ctx), ctx.Param("id"), req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "推荐完成", resp)
	})

	// 职位搜索
	jobs := protected.Group("/jobs")

	jobs.POST("/search", func(c context.Context, ctx *app.RequestContext) {
		var req handler.JobSearchRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			handler.Fail(ctx, handler.BadRequest("请求体格式错误"))
			return
		}
		resp, err := handlers.Job.Search(c, middleware.GetUserID(ctx), req)
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "ok", resp)
	})

	jobs.GET("/:job_id", func(c context.Context, ctx *app.RequestContext) {
		keywords := splitKeywords(ctx.Query("keywords"))
		resp, err := handlers.Job.GetJob(c, ctx.Param("job_id"), keywords, ctx.Query("location"))
		if err != nil {
			handler.Fail(ctx, err)
			return
		}
		handler.OK(ctx, consts.StatusOK, "ok", resp)
	})
}

// splitKeywords 解析逗号分隔的关键词参数
func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}
