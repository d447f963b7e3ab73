package api

import (
	"net/http"

	"fairdice/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a service error onto its status code. Unclassified errors are logged
// and reported without detail.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"kind":  kind,
			"error": err,
		}).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   string(kind),
		Message: service.MessageOf(err),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   string(service.KindValidation),
		Message: message,
	})
}
