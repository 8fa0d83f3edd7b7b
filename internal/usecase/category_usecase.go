package usecase

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo}
}

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	list, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if list == nil {
		list = []model.Category{}
	}
	return list, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	c, err := normalizeCategory(in)
	if err != nil {
		return model.Category{}, err
	}

	created, err := u.categoryRepo.Create(ctx, c)
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "slug already used")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in CategoryInput) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := normalizeCategory(in)
	if err != nil {
		return err
	}
	c.ID = id

	err = u.categoryRepo.Update(ctx, c)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrConflict):
		return NewHTTPError(http.StatusConflict, "slug already used")
	case err != nil:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 商品はカテゴリなしになる
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.categoryRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// slug未指定なら name から作る（"Leafy Greens" -> "leafy-greens"）
func normalizeCategory(in CategoryInput) (model.Category, error) {
	//連続する空白は1つにまとめる
	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(name) > 100 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name too long")
	}

	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}
	if len(slug) > 100 || !slugPattern.MatchString(slug) {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}

	return model.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
	}, nil
}
