package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chirpnet/api/internal/messages"
	"chirpnet/api/internal/middleware"
	"chirpnet/api/internal/service"
)

func (h HandlerSet) UploadImage(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c, middleware.CtxDecodedAuthorization)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": messages.AccessTokenIsRequired})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Image file is required"})
		return
	}
	defer file.Close()

	url, err := h.media.UploadImage(c.Request.Context(), service.UploadImageInput{
		UserID: claims.UserID,
		File:   file,
		Header: header,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedImage) || errors.Is(err, service.ErrImageTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": messages.UploadImageSuccess,
		"result":  gin.H{"url": url},
	})
}
