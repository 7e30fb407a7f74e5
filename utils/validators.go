package utils

import (
	"main/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func InitValidator() {
	Validate = validator.New()
	Validate.RegisterValidation("gender", ValidateGenderRule)
	Validate.RegisterValidation("sessionmode", ValidateSessionModeRule)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("gender", ValidateGenderRule)
		v.RegisterValidation("sessionmode", ValidateSessionModeRule)
	}
}

func ValidateGenderRule(fl validator.FieldLevel) bool {
	switch model.Gender(fl.Field().String()) {
	case model.GenderMale, model.GenderFemale, model.GenderOther:
		return true
	}
	return false
}

func ValidateSessionModeRule(fl validator.FieldLevel) bool {
	switch model.SessionMode(fl.Field().String()) {
	case model.ModeSelf, model.ModeAssisted:
		return true
	}
	return false
}
