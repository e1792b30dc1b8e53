package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
	"github.com/Nikhi-l37/local-inventory-project/internal/service"
)

// forgotPasswordMessage 无论邮箱是否注册都返回同一句话
const forgotPasswordMessage = "if that email is registered, a reset link has been sent"

// SellerHandler 卖家注册、登录与找回密码
type SellerHandler struct {
	service *service.SellerService
	log     *zap.Logger
}

func NewSellerHandler(svc *service.SellerService, log *zap.Logger) *SellerHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SellerHandler{service: svc, log: log}
}

func (h *SellerHandler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/sellers")
	group.POST("/register", h.register)
	group.POST("/login", h.login)
	group.POST("/login/verify", h.verifyOTP)
	group.POST("/login/resend", h.resendOTP)
	group.POST("/forgot-password", h.forgotPassword)
	group.POST("/reset-password/:token", h.resetPassword)
}

func (h *SellerHandler) register(ctx *gin.Context) {
	var form dto.Credentials
	if !bindJSON(ctx, &form) {
		return
	}
	token, err := h.service.Register(ctx.Request.Context(), form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, result.OkWithData(token))
}

func (h *SellerHandler) login(ctx *gin.Context) {
	var form dto.Credentials
	if !bindJSON(ctx, &form) {
		return
	}
	resp, warning, err := h.service.Login(ctx.Request.Context(), form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithWarning(resp, warning))
}

func (h *SellerHandler) verifyOTP(ctx *gin.Context) {
	var form dto.OTPVerifyForm
	if !bindJSON(ctx, &form) {
		return
	}
	token, err := h.service.VerifyOTP(ctx.Request.Context(), form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(token))
}

func (h *SellerHandler) resendOTP(ctx *gin.Context) {
	var form dto.OTPResendForm
	if !bindJSON(ctx, &form) {
		return
	}
	warning, err := h.service.ResendOTP(ctx.Request.Context(), form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithWarning(nil, warning))
}

func (h *SellerHandler) forgotPassword(ctx *gin.Context) {
	var form dto.ForgotPasswordForm
	if !bindJSON(ctx, &form) {
		return
	}
	if err := h.service.ForgotPassword(ctx.Request.Context(), form); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(gin.H{"message": forgotPasswordMessage}))
}

func (h *SellerHandler) resetPassword(ctx *gin.Context) {
	var form dto.ResetPasswordForm
	if !bindJSON(ctx, &form) {
		return
	}
	if err := h.service.ResetPassword(ctx.Request.Context(), ctx.Param("token"), form); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.Ok())
}
