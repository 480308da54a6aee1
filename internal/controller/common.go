package controller

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/labstack/echo"

	"github.com/go-playground/validator/v10"
)

const (
	headerUserId    = "X-User-Id"
	headerUserEmail = "X-User-Email"
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// callerIdentity is the authenticated user as asserted by the API gateway.
type callerIdentity struct {
	UserId int64
	Email  string
}

func getCallerIdentity(c echo.Context) (callerIdentity, bool) {
	raw := c.Request().Header.Get(headerUserId)
	if raw == "" {
		return callerIdentity{}, false
	}

	userId, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userId <= 0 {
		return callerIdentity{}, false
	}

	return callerIdentity{
		UserId: userId,
		Email:  c.Request().Header.Get(headerUserEmail),
	}, true
}

func getAllErrorMessages(err error) string {
	var builder strings.Builder
	for _, fe := range err.(validator.ValidationErrors) {
		message := fmt.Sprintf("'%s': %s\n", fe.Field(), getMessage(fe))
		builder.WriteString(message)
	}

	return builder.String()
}

func getMessage(fe validator.FieldError) string {
	s := ""
	if fe.Type() == reflect.TypeOf(s) {
		return getMessageForString(fe)
	}

	switch fe.Type().Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float64:
		return getMessageForNumber(fe)
	}

	return "incorrect value passed"
}

func getMessageForNumber(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	case "gt":
		return "should be greater than " + fe.Param()
	}

	return "incorrect value passed"
}

func getMessageForString(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "length should be less or equal than " + fe.Param()
	case "gte", "min":
		return "length should be greater or equal than " + fe.Param()
	case "oneof":
		return "should have value in: " + fe.Param()
	}

	return "incorrect value passed"
}
