package model

import "time"

// 保存済みの配送先
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255);not null" json:"email"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	//マンション・団地名
	SocietyName string `gorm:"type:varchar(255);not null" json:"society_name"`

	//部屋番号
	FlatNumber string `gorm:"type:varchar(50);not null" json:"flat_number"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (a Address) ToShipping() ShippingInfo {
	return ShippingInfo{
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		SocietyName: a.SocietyName,
		FlatNumber:  a.FlatNumber,
	}
}
