package binder

import (
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/go-playground/validator/v10"
)

// permissionValidator ensures the value is a permission token defined in the
// catalog. Permissions are closed-world, so anything else is rejected.
func permissionValidator(fl validator.FieldLevel) bool {
	return models.InCatalog(models.Permission(fl.Field().String()))
}
