package service

import "kitchen-backoffice/pkg/validator"

func validateStruct(v any) error {
	return invalid(validator.First(v))
}
