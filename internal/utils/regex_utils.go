package utils

import (
	"regexp"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(EMAIL_REGEX)
	codePattern  = regexp.MustCompile(VERIFY_CODE_REGEX)
)

// IsEmailInvalid 验证邮箱格式是否合法
func IsEmailInvalid(email string) bool {
	return mismatch(email, emailPattern)
}

// IsCodeInvalid 验证码必须是 6 位数字
func IsCodeInvalid(code string) bool {
	return mismatch(code, codePattern)
}

// IsPasswordInvalid 密码至少 6 个字符
func IsPasswordInvalid(password string) bool {
	return utf8.RuneCountInString(password) < PASSWORD_MIN_LEN
}

func mismatch(value string, pattern *regexp.Regexp) bool {
	if value == "" {
		return true
	}
	return !pattern.MatchString(value)
}
