package profile

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/lmsexplorer/lmsexplorer/core"
)

var (
	pwdMaxSim      = .9
	pwdUserSimTag  = "pwdtoosim"
	pwdUserSimText = "password cannot be identical to the username"
)

// RegisterValidators adds the profile struct validation to the given
// validator instance.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(profileStructValidation, Profile{})
	core.RegisterCustomTranslation(validate, translator, pwdUserSimTag, pwdUserSimText)
}

// Validate checks the profile before it is added or updated.
func (p Profile) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}

// profileStructValidation rejects passwords that are (almost) the username.
func profileStructValidation(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(Profile)
	if !ok || p.Password == "" || p.Username == "" {
		return
	}
	ratio := difflib.NewMatcher(
		strings.Split(strings.ToLower(p.Password), ""),
		strings.Split(strings.ToLower(p.Username), ""),
	).QuickRatio()
	if ratio >= pwdMaxSim {
		sl.ReportError(p.Password, "password", "Password", pwdUserSimTag, "")
	}
}
