package result

import "github.com/Nikhi-l37/local-inventory-project/internal/apperr"

// Result 统一响应体
type Result struct {
	Success   bool        `json:"success"`
	ErrorMsg  string      `json:"errorMsg,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Data      interface{} `json:"data"`
	Total     *int64      `json:"total,omitempty"`
	Warning   string      `json:"warning,omitempty"`
}

// Ok 返回一个不带数据的成功响应
func Ok() Result {
	return Result{Success: true}
}

// OkWithData 返回携带数据的成功响应
func OkWithData(data interface{}) Result {
	return Result{Success: true, Data: data}
}

// OkWithList 返回列表响应，total 为列表长度
func OkWithList[T any](list []T) Result {
	if list == nil {
		list = []T{}
	}
	total := int64(len(list))
	return Result{Success: true, Data: list, Total: &total}
}

// OkWithPage 返回分页成功响应
func OkWithPage(data interface{}, total int64) Result {
	return Result{Success: true, Data: data, Total: &total}
}

// OkWithWarning 主流程成功但附带的次要动作失败（如验证码邮件未送达）
func OkWithWarning(data interface{}, warning string) Result {
	return Result{Success: true, Data: data, Warning: warning}
}

// Fail 返回失败响应
func Fail(msg string) Result {
	return Result{Success: false, ErrorMsg: msg}
}

// FailWithCode 返回带错误码的失败响应
func FailWithCode(code, msg string) Result {
	return Result{Success: false, ErrorCode: code, ErrorMsg: msg}
}

// FromError 将业务错误转换为响应体与 HTTP 状态码；未分类错误不暴露内部信息
func FromError(err error) (int, Result) {
	status := apperr.HTTPStatus(err)
	e, ok := apperr.As(err)
	if !ok {
		return status, FailWithCode("INTERNAL", "internal server error")
	}
	code := e.Code
	if code == "" {
		code = string(e.Kind)
	}
	return status, FailWithCode(code, e.Message)
}
