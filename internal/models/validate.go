package models

import (
	"fmt"
	"strings"

	"marketplace-service/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=5000"`
	Price       int64               `json:"price" validate:"gt=0"`
	Stock       int                 `json:"stock" validate:"gte=0"`
	Category    string              `json:"category" validate:"max=100"`
	Tags        []string            `json:"tags" validate:"max=20,dive,max=50"`
	Images      []string            `json:"images" validate:"max=10,dive,max=500"`
	Options     map[string][]string `json:"options" validate:"max=10"`
}

// ShopInput is the writable part of a shop.
type ShopInput struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone" validate:"max=50"`
	Address      string   `json:"address" validate:"max=500"`
	City         string   `json:"city" validate:"max=100"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=50"`
	ProfileImage string   `json:"profile_image" validate:"max=500"`
	BannerImage  string   `json:"banner_image" validate:"max=500"`
}

// ProfileInput is the writable part of a user profile.
type ProfileInput struct {
	Name      string `json:"name" validate:"required,max=200"`
	Phone     string `json:"phone" validate:"max=50"`
	Address   string `json:"address" validate:"max=500"`
	AvatarURL string `json:"avatar_url" validate:"max=500"`
}

// ReviewInput is a rating submission.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Validate checks struct tags and reports failures as a BadRequest error.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.BadRequest("invalid input: %v", err)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return apperr.BadRequest("invalid input: %s", strings.Join(fields, "; "))
}
