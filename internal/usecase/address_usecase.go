package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"
)

// 1ユーザーが持てる住所の上限
const maxAddressesPerUser = 10

type AddressInput struct {
	Name        string `validate:"required,max=255"`
	Email       string `validate:"required,email,max=255"`
	Phone       string `validate:"required,phone"`
	SocietyName string `validate:"required,max=255"`
	FlatNumber  string `validate:"required,max=50"`
}

type AddressUsecase struct {
	addresses repo.AddressRepository
	validator StructValidator
}

func NewAddressUsecase(addresses repo.AddressRepository, validator StructValidator) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, validator: validator}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if list == nil {
		list = []model.Address{}
	}
	return list, nil
}

// 最初の1件は自動でデフォルトにする
func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in = trimAddressInput(in)
	if err := u.validator.Validate(in); err != nil {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existing, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(existing) >= maxAddressesPerUser {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "too many addresses")
	}

	now := time.Now()
	created, err := u.addresses.Create(ctx, model.Address{
		UserID:      userID,
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		SocietyName: in.SocietyName,
		FlatNumber:  in.FlatNumber,
		IsDefault:   len(existing) == 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) error {
	if _, err := u.findOwned(ctx, userID, addressID); err != nil {
		return err
	}
	in = trimAddressInput(in)
	if err := u.validator.Validate(in); err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := u.addresses.Update(ctx, model.Address{
		ID:          addressID,
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		SocietyName: in.SocietyName,
		FlatNumber:  in.FlatNumber,
		UpdatedAt:   time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 注文は配送先をコピーして持つので、住所を消しても注文には影響しない
func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if _, err := u.findOwned(ctx, userID, addressID); err != nil {
		return err
	}

	err := u.addresses.Delete(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if _, err := u.findOwned(ctx, userID, addressID); err != nil {
		return err
	}

	err := u.addresses.SetDefault(ctx, userID, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 無ければ404、他人のものなら403
func (u *AddressUsecase) findOwned(ctx context.Context, userID, addressID int64) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.UserID != userID {
		return model.Address{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return a, nil
}

func trimAddressInput(in AddressInput) AddressInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.SocietyName = strings.TrimSpace(in.SocietyName)
	in.FlatNumber = strings.TrimSpace(in.FlatNumber)
	return in
}
