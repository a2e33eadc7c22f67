// Package rest exposes the campaign control and compliance HTTP API.
package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

const maxBodySize = 1 << 20

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyOrgID     contextKey = "org_id"
)

// ResponseEnvelope wraps all API responses
type ResponseEnvelope struct {
	Success bool           `json:"success"`
	Data    interface{}    `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
	Meta    ResponseMeta   `json:"meta"`
}

// ResponseMeta contains response metadata
type ResponseMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse provides error details
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// baseHandler holds what every handler needs to decode requests and write responses
type baseHandler struct {
	validator *validator.Validate
	logger    *zap.Logger
}

func newBaseHandler(logger *zap.Logger) *baseHandler {
	v := validator.New()
	_ = v.RegisterValidation("phone", validatePhoneNumber)
	return &baseHandler{validator: v, logger: logger}
}

// validatePhoneNumber accepts anything that normalizes to a valid E.164 number
func validatePhoneNumber(fl validator.FieldLevel) bool {
	_, err := values.NewPhoneNumber(fl.Field().String())
	return err == nil
}

// decode reads a JSON body into dst and validates it
func (h *baseHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewValidationError("EMPTY_BODY", "Request body is required")
		}
		return errors.NewValidationError("INVALID_JSON", "Request body is not valid JSON").WithCause(err)
	}

	if err := h.validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			fields := make(map[string]interface{}, len(verrs))
			for _, fe := range verrs {
				fields[jsonFieldName(fe)] = fmt.Sprintf("failed on '%s'", fe.Tag())
			}
			return errors.NewValidationError("VALIDATION_FAILED", "Request validation failed").WithDetails(fields)
		}
		return errors.NewValidationError("VALIDATION_FAILED", err.Error())
	}
	return nil
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func (h *baseHandler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	h.write(w, r, status, ResponseEnvelope{Success: true, Data: data, Meta: responseMeta(r)})
}

// writeError maps an error onto its status code. Unknown errors become 500s
// and their text is never sent to the client.
func (h *baseHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	resp := &ErrorResponse{Code: "INTERNAL_ERROR", Message: "An internal error occurred"}

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		resp = &ErrorResponse{Code: "REQUEST_TIMEOUT", Message: "Request timed out"}
	default:
		if appErr, ok := errors.AsAppError(err); ok && appErr.Type != errors.ErrorTypeInternal {
			status = appErr.StatusCode
			resp = &ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	h.write(w, r, status, ResponseEnvelope{Success: false, Error: resp, Meta: responseMeta(r)})
}

func (h *baseHandler) write(w http.ResponseWriter, r *http.Request, status int, env ResponseEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.logger.Warn("Failed to encode response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func responseMeta(r *http.Request) ResponseMeta {
	meta := ResponseMeta{Timestamp: time.Now().UTC()}
	if id, ok := r.Context().Value(contextKeyRequestID).(string); ok {
		meta.RequestID = id
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		meta.TraceID = sc.TraceID().String()
	}
	return meta
}

// pathUUID parses a UUID path parameter
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errors.NewValidationError("INVALID_ID", fmt.Sprintf("%s must be a UUID", name))
	}
	return id, nil
}

// orgFromContext returns the organization the authenticated caller acts for
func orgFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(contextKeyOrgID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errors.NewUnauthorizedError("organization not found in token")
	}
	return id, nil
}
