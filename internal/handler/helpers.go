package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"gastropos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps typed domain errors to HTTP statuses. Services never
// decide status codes; this is the single mapping point.
func respondError(c *gin.Context, err error) {
	var notFound *apierror.NotFoundError
	var transicion *apierror.IllegalTransitionError
	var validacion *apierror.ValidationErrors
	var consistencia *apierror.ConsistencyFault
	var api *apierror.APIError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, apierror.New(notFound.Error()))
	case errors.As(err, &transicion):
		c.JSON(http.StatusConflict, apierror.New(transicion.Error()))
	case errors.As(err, &validacion):
		detalles := make([]string, 0, len(validacion.Errores))
		for _, e := range validacion.Errores {
			detalles = append(detalles, e.Error())
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": "La operación no pudo aplicarse.", "errores": detalles})
	case errors.As(err, &consistencia):
		c.JSON(http.StatusConflict, apierror.New(consistencia.Error()))
	case errors.As(err, &api):
		c.JSON(http.StatusBadRequest, api)
	default:
		// Internal errors go through the catch-all middleware unexposed.
		_ = c.Error(err)
	}
}

// queryInt reads an optional integer query parameter, zero when absent.
func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

// parseID parses a UUID path parameter, writing the 400 response on failure.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}
