package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/middleware"
	"form-intake/pkg/models"
	"form-intake/pkg/services"
	"form-intake/pkg/validation"
	"form-intake/pkg/web"
)

const (
	maxBodyBytes   = 64 << 10
	successMessage = "User data successfully inserted"
	welcomeMessage = "Welcome to the form intake service"
)

var errNotObject = apperrors.New(apperrors.ErrCodeInvalidRequest, "body must be a JSON object")

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	submissionService services.SubmissionService
	ready             func() bool
}

// NewHandlers creates a new Handlers instance. ready reports whether the
// service should receive traffic.
func NewHandlers(submissionService services.SubmissionService, ready func() bool) *Handlers {
	return &Handlers{
		submissionService: submissionService,
		ready:             ready,
	}
}

// Welcome answers the root path with plain text
func (h *Handlers) Welcome(c *gin.Context) {
	c.String(http.StatusOK, welcomeMessage)
}

// Form renders the registration form
func (h *Handlers) Form(c *gin.Context) {
	c.HTML(http.StatusOK, web.FormTemplate, gin.H{
		"Title": "Register",
	})
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready reports whether the store is open and the server is not draining
func (h *Handlers) Ready(c *gin.Context) {
	if h.ready != nil && !h.ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Submit accepts a JSON or form-encoded submission
func (h *Handlers) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	raw, err := readSubmission(c.Request)
	if err != nil {
		log.WithField("prefix", "api").WithField("request_id", middleware.GetRequestID(c)).WithError(err).Info("unreadable submission")
		middleware.AbortWithError(c, http.StatusBadRequest, apperrors.CodeOf(err), "Invalid request body")
		return
	}

	if _, err := h.submissionService.Submit(c.Request.Context(), raw); err != nil {
		writeSubmitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": successMessage})
}

func writeSubmitError(c *gin.Context, err error) {
	var fields validation.Errors
	if errors.As(err, &fields) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fields})
		return
	}

	_ = c.Error(err)
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeStorage:
		middleware.AbortWithError(c, http.StatusInternalServerError, apperrors.ErrCodeStorage, "Failed to save user data")
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, apperrors.ErrCodeInternal, "Internal server error")
	}
}

// readSubmission decodes a JSON object body, or a url-encoded or multipart
// form. Repeated form keys keep every value; validation takes the last one.
// Every error it returns carries ErrCodeInvalidRequest.
func readSubmission(r *http.Request) (models.RawSubmission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		var raw models.RawSubmission
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "error decoding JSON body", err)
		}
		if raw == nil {
			return nil, errNotObject
		}
		return raw, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "error parsing multipart form", err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "error parsing form", err)
		}
	}

	raw := make(models.RawSubmission, len(r.PostForm))
	for key, values := range r.PostForm {
		raw[key] = values
	}
	return raw, nil
}
