package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
	"github.com/Nikhi-l37/local-inventory-project/internal/storage"
)

// UploadHandler 图片上传，保存后返回可访问的 URL
type UploadHandler struct {
	store    storage.FileStore
	maxBytes int64
	log      *zap.Logger
}

func NewUploadHandler(store storage.FileStore, maxBytes int64, log *zap.Logger) *UploadHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadHandler{store: store, maxBytes: maxBytes, log: log}
}

func (h *UploadHandler) RegisterRoutes(api *gin.RouterGroup, authed gin.HandlerFunc) {
	group := api.Group("/upload", authed)
	group.POST("", h.uploadImage)
	group.DELETE("", h.deleteImage)
}

func (h *UploadHandler) uploadImage(ctx *gin.Context) {
	if h.maxBytes > 0 {
		// multipart 头部留 1MB 余量，真正的大小限制由 store 判断
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxBytes+1<<20)
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, result.FailWithCode("MISSING_FILE", "missing file"))
		return
	}
	src, err := file.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, result.FailWithCode("MISSING_FILE", "cannot read file"))
		return
	}
	defer src.Close()

	url, err := h.store.Save(ctx.Request.Context(), file.Filename, src)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		ctx.JSON(http.StatusBadRequest, result.FailWithCode("UNSUPPORTED_TYPE", "only jpg, png, gif and webp images are allowed"))
		return
	case errors.Is(err, storage.ErrTooLarge):
		ctx.JSON(http.StatusRequestEntityTooLarge, result.FailWithCode("FILE_TOO_LARGE", "file is too large"))
		return
	case err != nil:
		h.log.Error("save upload failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, result.FailWithCode("INTERNAL", "upload failed"))
		return
	}
	ctx.JSON(http.StatusCreated, result.OkWithData(dto.UploadResponse{URL: url}))
}

func (h *UploadHandler) deleteImage(ctx *gin.Context) {
	url := ctx.Query("url")
	if url == "" {
		ctx.JSON(http.StatusBadRequest, result.FailWithCode("INVALID_PATH", "url is required"))
		return
	}
	err := h.store.Delete(ctx.Request.Context(), url)
	if errors.Is(err, storage.ErrInvalidPath) {
		ctx.JSON(http.StatusBadRequest, result.FailWithCode("INVALID_PATH", "invalid file name"))
		return
	}
	if err != nil {
		h.log.Error("delete upload failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, result.FailWithCode("INTERNAL", "delete failed"))
		return
	}
	ctx.JSON(http.StatusOK, result.Ok())
}
