// Package signup implements the client-side gate for the auth form: password
// strength scoring, the arithmetic captcha, and the submit rule that ties
// them together.
package signup

// FormMode distinguishes the two states of the auth form.
type FormMode string

const (
	ModeSignIn FormMode = "sign_in"
	ModeSignUp FormMode = "sign_up"
)

// Form captures the inputs the submit decision depends on.
type Form struct {
	Mode            FormMode
	Password        string
	ConfirmPassword string
	StrengthScore   int
	CaptchaOK       bool
}

// CanSubmit reports whether the form may be submitted. Sign-in has no
// client-side requirements. Sign-up requires a strength score of at least 3,
// matching password fields, and a solved captcha.
func CanSubmit(f Form) bool {
	if f.Mode != ModeSignUp {
		return true
	}
	return f.StrengthScore >= 3 &&
		f.Password == f.ConfirmPassword &&
		f.CaptchaOK
}
