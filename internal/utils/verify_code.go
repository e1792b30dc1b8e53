package utils

import (
	"crypto/rand"
	"errors"
)

// OTP_LENGTH 登录验证码位数，与 VERIFY_CODE_REGEX 保持一致
const OTP_LENGTH = 6

// GenerateNumericCode 用 crypto/rand 逐位生成数字验证码，允许前导零
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", errors.New("code length must be positive")
	}
	buf := make([]byte, digits)
	out := make([]byte, 0, digits)
	for len(out) < digits {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// 250 以上丢弃，保证 0-9 等概率
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == digits {
				break
			}
		}
	}
	return string(out), nil
}
