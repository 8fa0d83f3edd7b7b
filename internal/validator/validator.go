package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// 先頭+は任意、数字・空白・ハイフンで7〜15桁
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}[0-9]$`)

// Validator は echo.Validator を満たす
type Validator struct {
	v *playground.Validate
}

func New() *Validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	// "phone" は shipping / address で使う
	_ = v.RegisterValidation("phone", isPhone)
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return Humanize(err)
	}
	return nil
}

func isPhone(fl playground.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// Humanize は最初のフィールドエラーを "field: reason" の1行にする
func Humanize(err error) error {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email", field)
	case "phone":
		return fmt.Errorf("%s must be a valid phone number", field)
	case "max":
		return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s]", field, fe.Param())
	}
	return fmt.Errorf("%s is invalid", field)
}

// SocietyName -> society_name
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
