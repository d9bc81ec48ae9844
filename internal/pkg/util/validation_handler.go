package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateDTO 校验失败时返回带字段信息的错误，保留 validator.ValidationErrors 供上层识别
func ValidateDTO(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		first := vErrs[0]
		return fmt.Errorf("field [%s] failed rule [%s]: %w", first.Field(), first.Tag(), vErrs)
	}
	return err
}
