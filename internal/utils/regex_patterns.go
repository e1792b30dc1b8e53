package utils

const (
	EMAIL_REGEX       = "^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9-]+(\\.[a-zA-Z0-9-]+)+$"
	VERIFY_CODE_REGEX = "^\\d{6}$"

	PASSWORD_MIN_LEN = 6
)
