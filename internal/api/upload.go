package api

import (
	"errors"
	"net/http"

	"product-catalog/internal/imagestore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for boundaries and headers around the file.
const multipartOverhead = 1 << 20

func (h *Handler) uploadImage(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": "Image storage is not configured",
			"error":   "Image storage is not configured",
		})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploader.MaxBytes()+multipartOverhead)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.uploadRejected(c, imagestore.ErrTooLarge)
			return
		}
		h.uploadRejected(c, imagestore.ErrNoFile)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.uploadFailed(c, err)
		return
	}
	defer file.Close()

	image, err := h.uploader.Upload(c.Request.Context(),
		header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		if errors.Is(err, imagestore.ErrNotImage) || errors.Is(err, imagestore.ErrTooLarge) {
			h.uploadRejected(c, err)
			return
		}
		h.uploadFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"url":      image.URL,
		"publicId": image.PublicID,
	})
}

func (h *Handler) uploadRejected(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": err.Error(),
		"error":   err.Error(),
	})
}

func (h *Handler) uploadFailed(c *gin.Context, err error) {
	h.logger.Error("Image upload failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Failed to upload image",
		"message": err.Error(),
	})
}
