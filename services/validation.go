package services

import (
	"fmt"

	"github.com/anjiri1684/medical_consult/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func validateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidArgument, err.Error())
	}
	return nil
}
