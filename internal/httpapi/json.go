package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/alexanderramin/phasehours/internal/contract"
	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:              http.StatusBadRequest,
	domain.CodePreconditionFailed:      http.StatusBadRequest,
	domain.CodeBudgetExceeded:          http.StatusBadRequest,
	domain.CodeBelowPlannedHours:       http.StatusBadRequest,
	domain.CodeNotFound:                http.StatusNotFound,
	domain.CodeStaleState:              http.StatusConflict,
	domain.CodeInvalidDestinationState: http.StatusUnprocessableEntity,
	domain.CodeForbidden:               http.StatusForbidden,
	domain.CodeDataIntegrity:           http.StatusInternalServerError,
	domain.CodeInternal:                http.StatusInternalServerError,
}

func statusOf(code domain.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, contract.OK(data))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := contract.ErrorFrom(err)
	status := statusOf(body.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(body.Code)),
			zap.Error(err))
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into dst and runs its validation tags. Nothing is
// read from storage until both pass.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, domain.Validationf("malformed request body: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			s.writeError(w, r, err)
			return false
		}
		writeJSON(w, http.StatusBadRequest, contract.ValidationFailed(describe(verrs)))
		return false
	}
	return true
}

func describe(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fe.Field()))
		case "required_if":
			out = append(out, fmt.Sprintf("%s is required when %s", fe.Field(), fe.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "datetime":
			out = append(out, fmt.Sprintf("%s must be a date in %s format", fe.Field(), fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return out
}
