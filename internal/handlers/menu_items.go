package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/catalog"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
	"github.com/lateeflat25-prog/9jabukabackend/internal/storage"
)

func respondCatalogError(c *gin.Context, logger logrus.FieldLogger, route string, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		respondAppError(c, logger, route, apperr.New(apperr.KindItemNotFound, "Food item not found"))
		return
	}
	respondAppError(c, logger, route, err)
}

func ListMenuItems(store catalog.Store, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/foods"

		items, err := store.ListMenuItems(c.Request.Context(), strings.TrimSpace(c.Query("category")))
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func GetMenuItem(store catalog.Store, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/foods/:id"

		item, err := store.GetMenuItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondCatalogError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func CreateMenuItem(store catalog.Store, images storage.ImageStore, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/foods/upload"

		input, err := parseMultipartMenuItemRequest(c)
		if err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}
		if input.Image == nil {
			respondWithError(c, logger, http.StatusBadRequest, route, "image is required")
			return
		}

		item := &models.MenuItem{}
		input.apply(item)
		if err := catalog.Validate(item); err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}

		url, ok := storeImage(c, images, logger, route, input)
		if !ok {
			return
		}
		item.ImageURL = url

		if err := store.CreateMenuItem(c.Request.Context(), item); err != nil {
			discardImage(c, images, logger, route, url)
			respondAppError(c, logger, route, err)
			return
		}

		requestLogger(c, logger, route).WithField("menuItemId", item.ID.Hex()).Info("menu item created")
		c.JSON(http.StatusCreated, item)
	}
}

// UpdateMenuItem applies a partial update. A new image replaces the old one,
// which is removed only after the item is saved.
func UpdateMenuItem(store catalog.Store, images storage.ImageStore, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/foods/:id"

		item, err := store.GetMenuItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondCatalogError(c, logger, route, err)
			return
		}

		input, err := parseMultipartMenuItemRequest(c)
		if err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}

		input.apply(item)
		if len(item.Sizes) == 0 && !input.HasSizesSet {
			item.HasSizes = false
		}
		if err := catalog.Validate(item); err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}

		oldImage := item.ImageURL
		if input.Image != nil {
			url, ok := storeImage(c, images, logger, route, input)
			if !ok {
				return
			}
			item.ImageURL = url
		}

		if err := store.ReplaceMenuItem(c.Request.Context(), item); err != nil {
			if input.Image != nil {
				discardImage(c, images, logger, route, item.ImageURL)
			}
			respondCatalogError(c, logger, route, err)
			return
		}
		if input.Image != nil {
			discardImage(c, images, logger, route, oldImage)
		}

		c.JSON(http.StatusOK, item)
	}
}

func DeleteMenuItem(store catalog.Store, images storage.ImageStore, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/foods/:id"

		item, err := store.DeleteMenuItem(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondCatalogError(c, logger, route, err)
			return
		}
		discardImage(c, images, logger, route, item.ImageURL)

		c.JSON(http.StatusOK, gin.H{"message": "Food item deleted"})
	}
}

func storeImage(c *gin.Context, images storage.ImageStore, logger logrus.FieldLogger, route string, input menuItemInput) (string, bool) {
	if err := storage.CheckImage(input.Image.Filename, input.Image.Size); err != nil {
		respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
		return "", false
	}

	file, err := input.Image.Open()
	if err != nil {
		respondWithError(c, logger, http.StatusBadRequest, route, "unreadable image")
		return "", false
	}
	defer file.Close()

	url, err := images.Upload(c.Request.Context(), input.Image.Filename, input.Image.Size, file)
	if errors.Is(err, storage.ErrInvalidImage) {
		respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
		return "", false
	}
	if err != nil {
		respondAppError(c, logger, route, err)
		return "", false
	}
	return url, true
}

// discardImage removes an image that is no longer referenced. Failures leave
// an orphan file and are only logged.
func discardImage(c *gin.Context, images storage.ImageStore, logger logrus.FieldLogger, route, url string) {
	if url == "" {
		return
	}
	if err := images.Delete(c.Request.Context(), url); err != nil {
		requestLogger(c, logger, route).WithError(err).WithField("imageUrl", url).Warn("image cleanup failed")
	}
}
