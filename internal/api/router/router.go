package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"resume-matcher-go/internal/api/handler"
	"resume-matcher-go/internal/gen"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/storage"
	"resume-matcher-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(
	h *server.Hertz,
	matchHandler *handler.MatchHandler,
	runHandler *handler.RunHandler,
	genHandler *handler.GenHandler,
) {
	api := h.Group("/api/v1")

	api.POST("/match", func(c context.Context, ctx *app.RequestContext) {
		jobDescription := ctx.PostForm("job_description")

		form, err := ctx.MultipartForm()
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "解析multipart表单失败"})
			return
		}

		files := form.File["resumes"]
		resumes := make([]types.ResumeDocument, 0, len(files))
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": fmt.Sprintf("打开文件 %s 失败", fileHeader.Filename)})
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": fmt.Sprintf("读取文件 %s 失败", fileHeader.Filename)})
				return
			}
			resumes = append(resumes, types.ResumeDocument{
				FileName: fileHeader.Filename,
				Format:   types.FormatFromFilename(fileHeader.Filename),
				Data:     data,
			})
		}

		resp, err := matchHandler.HandleMatch(c, jobDescription, resumes)
		if err != nil {
			// 输入级错误返回400，其余为500
			if errors.Is(err, matcher.ErrEmptyJobDescription) || errors.Is(err, matcher.ErrEmptyBatch) {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/runs", func(c context.Context, ctx *app.RequestContext) {
		limit, _ := strconv.Atoi(ctx.Query("limit"))
		offset, _ := strconv.Atoi(ctx.Query("offset"))

		runs, err := runHandler.ListRuns(c, limit, offset)
		if err != nil {
			if errors.Is(err, handler.ErrStorageUnavailable) {
				ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": err.Error()})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"runs": runs})
	})

	api.GET("/runs/:id", func(c context.Context, ctx *app.RequestContext) {
		detail, err := runHandler.GetRun(c, ctx.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrRunNotFound):
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
			case errors.Is(err, handler.ErrStorageUnavailable):
				ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": err.Error()})
			default:
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			}
			return
		}
		ctx.JSON(consts.StatusOK, detail)
	})

	api.GET("/runs/:id/artifacts/:kind", func(c context.Context, ctx *app.RequestContext) {
		url, err := runHandler.GetArtifactURL(c, ctx.Param("id"), ctx.Param("kind"))
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrRunNotFound):
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
			case errors.Is(err, handler.ErrStorageUnavailable):
				ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": err.Error()})
			default:
				ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
			}
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"url": url})
	})

	api.POST("/generate/cover-letter", func(c context.Context, ctx *app.RequestContext) {
		var req gen.CoverLetterRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "解析请求体失败"})
			return
		}

		resp, err := genHandler.HandleCoverLetter(c, req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/generate/test-cases", func(c context.Context, ctx *app.RequestContext) {
		var req gen.TestCaseRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "解析请求体失败"})
			return
		}

		// format=xlsx 时直接返回表格文件
		if ctx.Query("format") == "xlsx" {
			data, err := genHandler.HandleTestCasesXLSX(c, req)
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
				return
			}
			ctx.Response.Header.Set("Content-Disposition", `attachment; filename="test_cases.xlsx"`)
			ctx.Data(consts.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
			return
		}

		resp, err := genHandler.HandleTestCases(c, req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
