package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"stockwatch/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

func success(c *gin.Context, status int, data any) {
	body := gin.H{"status": "success"}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func errorBody(message string) gin.H {
	return gin.H{"status": "error", "message": message}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, body := s.errorResponse(c, err)
	c.JSON(status, body)
}

func (s *Server) abortError(c *gin.Context, err error) {
	status, body := s.errorResponse(c, err)
	c.AbortWithStatusJSON(status, body)
}

func (s *Server) errorResponse(c *gin.Context, err error) (int, gin.H) {
	_ = c.Error(err)
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if kind == apperr.KindInternal {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("unhandled error")
		return status, errorBody("internal server error")
	}
	if kind == apperr.KindUpstreamUnavailable {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Message != "" {
			log.Warn().Err(err).Str("request_id", requestID(c)).Msg("upstream failure")
			return status, errorBody(ae.Message)
		}
	}
	return status, errorBody(err.Error())
}

// bindError reports a request body that failed to decode or validate, listing offending fields.
func (s *Server) bindError(c *gin.Context, err error) {
	_ = c.Error(err)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	fields := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		msg := fmt.Sprintf("%s is %s", field, fe.Tag())
		if fe.Tag() == "max" {
			msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		fields[field] = msg
		msgs = append(msgs, msg)
	}
	body := errorBody(strings.Join(msgs, "; "))
	body["errors"] = fields
	c.JSON(http.StatusBadRequest, body)
}
