package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"
	"haritsattva/internal/usecase"
	"haritsattva/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAddressUsecase() (*usecase.AddressUsecase, *AddressRepoMock) {
	addresses := new(AddressRepoMock)
	return usecase.NewAddressUsecase(addresses, validator.New()), addresses
}

func validAddressInput() usecase.AddressInput {
	return usecase.AddressInput{
		Name:        "Asha Rao",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		SocietyName: "Green Meadows",
		FlatNumber:  "B-402",
	}
}

func TestAddressUsecase_Create_FirstIsDefault(t *testing.T) {
	uc, addresses := newAddressUsecase()
	addresses.On("ListByUserID", mock.Anything, int64(7)).Return([]model.Address{}, nil)
	addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.UserID == 7 && a.IsDefault && a.SocietyName == "Green Meadows"
	})).Return(model.Address{ID: 1, UserID: 7, IsDefault: true}, nil)

	a, err := uc.Create(context.Background(), 7, validAddressInput())
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
}

func TestAddressUsecase_Create_SecondIsNotDefault(t *testing.T) {
	uc, addresses := newAddressUsecase()
	addresses.On("ListByUserID", mock.Anything, int64(7)).Return([]model.Address{{ID: 1, UserID: 7, IsDefault: true}}, nil)
	addresses.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool { return !a.IsDefault })).
		Return(model.Address{ID: 2, UserID: 7}, nil)

	_, err := uc.Create(context.Background(), 7, validAddressInput())
	require.NoError(t, err)
	addresses.AssertExpectations(t)
}

func TestAddressUsecase_Create_Invalid(t *testing.T) {
	uc, addresses := newAddressUsecase()
	in := validAddressInput()
	in.Email = "not-an-email"

	_, err := uc.Create(context.Background(), 7, in)
	assertStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "email")
	addresses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddressUsecase_Create_Limit(t *testing.T) {
	uc, addresses := newAddressUsecase()
	addresses.On("ListByUserID", mock.Anything, int64(7)).Return(make([]model.Address, 10), nil)

	_, err := uc.Create(context.Background(), 7, validAddressInput())
	assertStatus(t, err, http.StatusBadRequest)
}

func TestAddressUsecase_Ownership(t *testing.T) {
	uc, addresses := newAddressUsecase()
	addresses.On("FindByID", mock.Anything, int64(3)).Return(model.Address{ID: 3, UserID: 99}, nil)
	addresses.On("FindByID", mock.Anything, int64(4)).Return(model.Address{}, repo.ErrNotFound)

	err := uc.Update(context.Background(), 7, 3, validAddressInput())
	assertStatus(t, err, http.StatusForbidden)
	err = uc.Delete(context.Background(), 7, 3)
	assertStatus(t, err, http.StatusForbidden)
	err = uc.SetDefault(context.Background(), 7, 3)
	assertStatus(t, err, http.StatusForbidden)

	err = uc.Delete(context.Background(), 7, 4)
	assertStatus(t, err, http.StatusNotFound)

	addresses.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	addresses.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	addresses.AssertNotCalled(t, "SetDefault", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddressUsecase_SetDefault(t *testing.T) {
	uc, addresses := newAddressUsecase()
	addresses.On("FindByID", mock.Anything, int64(3)).Return(model.Address{ID: 3, UserID: 7}, nil)
	addresses.On("SetDefault", mock.Anything, int64(7), int64(3)).Return(nil)

	require.NoError(t, uc.SetDefault(context.Background(), 7, 3))
	addresses.AssertExpectations(t)
}

func TestAddressUsecase_List_Unauthorized(t *testing.T) {
	uc, _ := newAddressUsecase()

	_, err := uc.List(context.Background(), 0)
	assertStatus(t, err, http.StatusUnauthorized)
}
