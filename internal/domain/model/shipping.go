package model

// 配送先（チェックアウトフォームの入力）
type ShippingInfo struct {
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Phone       string `json:"phone" validate:"required,phone"`
	SocietyName string `json:"society_name" validate:"required,max=255"`
	FlatNumber  string `json:"flat_number" validate:"required,max=50"`
}
