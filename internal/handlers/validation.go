package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator заставляет validator называть поля по json-тегам,
// чтобы ключи в ответе 422 совпадали с полями запроса.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// respondBindError превращает ошибку биндинга в ответ 422 с сообщениями по полям.
func respondBindError(c *gin.Context, err error) {
	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		fields[typeErr.Field] = "Invalid value"
	default:
		fields["body"] = "Invalid request body"
	}

	respondValidation(c, fields)
}

func respondValidation(c *gin.Context, fields map[string]string) {
	data := make(gin.H, len(fields))
	for field, msg := range fields {
		data[field] = gin.H{"message": msg}
	}

	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"statusCode":    http.StatusUnprocessableEntity,
		"statusMessage": "Validation Error",
		"data":          data,
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	default:
		return "Invalid value"
	}
}
