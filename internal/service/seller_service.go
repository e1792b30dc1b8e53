package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/auth"
	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
	"github.com/Nikhi-l37/local-inventory-project/internal/notify"
	"github.com/Nikhi-l37/local-inventory-project/internal/utils"
)

const (
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeInvalidCode     = "INVALID_CODE"
	CodeEmailTaken      = "EMAIL_TAKEN"
	CodeResendLimited   = "OTP_RESEND_LIMITED"

	// otpDeliveryWarning 验证码发送失败时返回给前端的提示，登录流程不中断
	otpDeliveryWarning = "verification code could not be delivered, try resending"
)

var errBadCredentials = apperr.Unauthorized("invalid email or password")

// SellerService 卖家注册、登录（可选 OTP 二次验证）与找回密码
type SellerService struct {
	db       *gorm.DB
	jwt      *auth.JWTManager
	otp      OTPStore
	notifier notify.Notifier
	cfg      config.AuthConfig
	now      func() time.Time
	log      *zap.Logger
}

func NewSellerService(
	db *gorm.DB,
	jwt *auth.JWTManager,
	otp OTPStore,
	notifier notify.Notifier,
	cfg config.AuthConfig,
	log *zap.Logger,
) *SellerService {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	return &SellerService{
		db:       db,
		jwt:      jwt,
		otp:      otp,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// Register 创建卖家并直接签发 token
func (s *SellerService) Register(ctx context.Context, form dto.Credentials) (*dto.TokenResponse, error) {
	email, err := normalizeEmail(form.Email)
	if err != nil {
		return nil, err
	}
	if utils.IsPasswordInvalid(form.Password) {
		return nil, apperr.Validation(CodeInvalidPassword,
			fmt.Sprintf("password must be at least %d characters", utils.PASSWORD_MIN_LEN))
	}
	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(CodeEmailTaken, "a seller with this email already exists")
	}
	hash, err := utils.Encode(form.Password)
	if err != nil {
		return nil, err
	}
	seller := &model.Seller{Email: email, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(seller).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(CodeEmailTaken, "a seller with this email already exists")
		}
		return nil, err
	}
	s.log.Info("seller registered", zap.Int64("sellerId", seller.ID))
	token, err := s.jwt.Issue(seller.ID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{Token: token}, nil
}

// Login 校验密码；开启 OTP 时返回挑战 id，warning 非空表示验证码未能送达
func (s *SellerService) Login(ctx context.Context, form dto.Credentials) (*dto.LoginResponse, string, error) {
	email, err := normalizeEmail(form.Email)
	if err != nil {
		return nil, "", errBadCredentials
	}
	seller, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if seller == nil {
		return nil, "", errBadCredentials
	}
	ok, err := utils.Matches(seller.PasswordHash, form.Password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", errBadCredentials
	}

	if !s.cfg.OTP.Enabled {
		token, err := s.jwt.Issue(seller.ID)
		if err != nil {
			return nil, "", err
		}
		return &dto.LoginResponse{Token: token}, "", nil
	}

	ch := OTPChallenge{ID: uuid.NewString(), SellerID: seller.ID, Email: seller.Email}
	warning, err := s.sendChallenge(ctx, ch)
	if err != nil {
		return nil, "", err
	}
	return &dto.LoginResponse{ChallengeID: ch.ID}, warning, nil
}

// VerifyOTP 验证码一次性使用；错误次数达到上限后挑战作废
func (s *SellerService) VerifyOTP(ctx context.Context, form dto.OTPVerifyForm) (*dto.TokenResponse, error) {
	if utils.IsCodeInvalid(form.Code) {
		return nil, apperr.Validation(CodeInvalidCode, "code must be 6 digits")
	}
	ch, err := s.challenge(ctx, form.ChallengeID)
	if err != nil {
		return nil, err
	}
	if ch.Attempts >= s.cfg.OTP.MaxAttempts {
		_ = s.otp.Delete(ctx, ch.ID)
		return nil, apperr.Unauthorized("too many attempts, please log in again")
	}
	ok, err := utils.Matches(ch.CodeHash, form.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		attempts, err := s.otp.IncrAttempts(ctx, ch.ID)
		if err != nil {
			return nil, err
		}
		if attempts >= s.cfg.OTP.MaxAttempts {
			_ = s.otp.Delete(ctx, ch.ID)
			return nil, apperr.Unauthorized("too many attempts, please log in again")
		}
		return nil, apperr.Unauthorized("invalid verification code")
	}
	if err := s.otp.Delete(ctx, ch.ID); err != nil {
		return nil, err
	}
	token, err := s.jwt.Issue(ch.SellerID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{Token: token}, nil
}

// ResendOTP 受冷却时间与最大重发次数限制
func (s *SellerService) ResendOTP(ctx context.Context, form dto.OTPResendForm) (string, error) {
	ch, err := s.challenge(ctx, form.ChallengeID)
	if err != nil {
		return "", err
	}
	if ch.Resends >= s.cfg.OTP.MaxResends {
		return "", apperr.RateLimited(CodeResendLimited, "resend limit reached, please log in again")
	}
	if wait := s.cfg.OTP.Cooldown - s.now().Sub(ch.SentAt); wait > 0 {
		return "", apperr.RateLimited(CodeResendLimited,
			fmt.Sprintf("please wait %d seconds before resending", int(wait.Seconds()+0.999)))
	}
	// 错误次数跨重发累计，重发不增加猜测机会
	ch.Resends++
	return s.sendChallenge(ctx, *ch)
}

// ForgotPassword 无论邮箱是否存在都返回成功，避免泄露注册情况
func (s *SellerService) ForgotPassword(ctx context.Context, form dto.ForgotPasswordForm) error {
	email, err := normalizeEmail(form.Email)
	if err != nil {
		return err
	}
	seller, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if seller == nil {
		s.log.Debug("password reset for unknown email")
		return nil
	}
	token, err := s.jwt.IssueReset(seller.ID, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf(s.cfg.ResetURLTemplate, token)
	body := fmt.Sprintf("Use the link below to reset your password. It expires in %d minutes.\n\n%s\n",
		int(s.cfg.ResetTokenTTL.Minutes()), link)
	if err := s.notifier.Send(ctx, seller.Email, "Reset your password", body); err != nil {
		s.log.Warn("send reset email failed", zap.Int64("sellerId", seller.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword 使用重置 token 设置新密码
func (s *SellerService) ResetPassword(ctx context.Context, token string, form dto.ResetPasswordForm) error {
	sellerID, err := s.jwt.Verify(token, auth.PurposeReset)
	if err != nil {
		return apperr.Unauthorized("reset link is invalid or has expired")
	}
	if utils.IsPasswordInvalid(form.Password) {
		return apperr.Validation(CodeInvalidPassword,
			fmt.Sprintf("password must be at least %d characters", utils.PASSWORD_MIN_LEN))
	}
	hash, err := utils.Encode(form.Password)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&model.Seller{}).Where("id = ?", sellerID).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Unauthorized("reset link is invalid or has expired")
	}
	s.log.Info("seller password reset", zap.Int64("sellerId", sellerID))
	return nil
}

// sendChallenge 生成新验证码、保存挑战并发送邮件；发送失败只返回 warning
func (s *SellerService) sendChallenge(ctx context.Context, ch OTPChallenge) (string, error) {
	code, err := utils.GenerateNumericCode(utils.OTP_LENGTH)
	if err != nil {
		return "", err
	}
	hash, err := utils.Encode(code)
	if err != nil {
		return "", err
	}
	ch.CodeHash = hash
	ch.SentAt = s.now()
	if err := s.otp.Save(ctx, ch, s.cfg.OTP.TTL); err != nil {
		return "", apperr.Dependency("save login challenge failed", err)
	}
	body := fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, int(s.cfg.OTP.TTL.Minutes()))
	if err := s.notifier.Send(ctx, ch.Email, "Your login code", body); err != nil {
		s.log.Warn("send login code failed", zap.Int64("sellerId", ch.SellerID), zap.Error(err))
		return otpDeliveryWarning, nil
	}
	return "", nil
}

func (s *SellerService) challenge(ctx context.Context, id string) (*OTPChallenge, error) {
	if s.otp == nil {
		return nil, apperr.Validation(CodeInvalidCode, "otp login is disabled")
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation(CodeInvalidCode, "challengeId is required")
	}
	ch, err := s.otp.Get(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("load login challenge failed", err)
	}
	if ch == nil {
		return nil, apperr.Unauthorized("verification expired, please log in again")
	}
	return ch, nil
}

func (s *SellerService) findByEmail(ctx context.Context, email string) (*model.Seller, error) {
	var seller model.Seller
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&seller).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if utils.IsEmailInvalid(email) {
		return "", apperr.Validation(CodeInvalidEmail, "email format is invalid")
	}
	return email, nil
}
