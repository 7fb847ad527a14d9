package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMessage 把绑定错误转成可读的具体原因
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.String())
	}

	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	name := jsonFieldName(fe)
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", name, fe.Tag())
	}
}

func jsonFieldName(fe validator.FieldError) string {
	// Namespace 形如 SubmitAttemptRequest.Responses[0].SelectedOption
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}
