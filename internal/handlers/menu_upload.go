package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

const maxMultipartMemory = 8 << 20

// menuItemInput holds the multipart fields of a menu item request. The Set
// flags distinguish an omitted field from a zero value on partial updates.
type menuItemInput struct {
	Name           string
	NameSet        bool
	Description    string
	DescriptionSet bool
	Category       string
	CategorySet    bool
	Price          float64
	PriceSet       bool
	CookingTime    int
	CookingTimeSet bool
	Sizes          []models.SizeVariant
	SizesSet       bool
	HasSizes       bool
	HasSizesSet    bool
	Image          *multipart.FileHeader
}

func parseMultipartMenuItemRequest(c *gin.Context) (menuItemInput, error) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return menuItemInput{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	input := menuItemInput{}

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}
	if value, ok := c.GetPostForm("description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}
	if value, ok := c.GetPostForm("category"); ok {
		input.Category = strings.TrimSpace(value)
		input.CategorySet = true
	}

	if value, ok := c.GetPostForm("price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return menuItemInput{}, errors.New("price must be a number")
		}
		input.Price = parsed
		input.PriceSet = true
	}
	if value, ok := c.GetPostForm("cookingTime"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return menuItemInput{}, errors.New("cookingTime must be an integer")
		}
		input.CookingTime = parsed
		input.CookingTimeSet = true
	}

	if value, ok := c.GetPostForm("sizes"); ok && strings.TrimSpace(value) != "" {
		var sizes []models.SizeVariant
		if err := json.Unmarshal([]byte(value), &sizes); err != nil {
			return menuItemInput{}, errors.New("sizes must be a JSON array of {name, price}")
		}
		input.Sizes = sizes
		input.SizesSet = true
	}

	// Browsers may send the checkbox twice; the last value wins.
	if values := c.PostFormArray("hasSizes"); len(values) > 0 {
		parsed, err := parseBoolValue(values[len(values)-1])
		if err != nil {
			return menuItemInput{}, errors.New("hasSizes must be a boolean")
		}
		input.HasSizes = parsed
		input.HasSizesSet = true
	}

	file, err := c.FormFile("image")
	switch {
	case err == nil:
		input.Image = file
	case errors.Is(err, http.ErrMissingFile):
	default:
		return menuItemInput{}, err
	}

	return input, nil
}

// apply copies the set fields onto item.
func (in menuItemInput) apply(item *models.MenuItem) {
	if in.NameSet {
		item.Name = in.Name
	}
	if in.DescriptionSet {
		item.Description = in.Description
	}
	if in.CategorySet {
		item.Category = in.Category
	}
	if in.PriceSet {
		item.Price = in.Price
	}
	if in.CookingTimeSet {
		item.CookingTime = in.CookingTime
	}
	if in.SizesSet {
		item.Sizes = in.Sizes
	}
	if in.HasSizesSet {
		item.HasSizes = in.HasSizes
	}
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}
