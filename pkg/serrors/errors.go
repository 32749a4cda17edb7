package serrors

import "errors"

// BaseError carries a stable machine-readable code next to the message.
type BaseError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	LocaleKey string `json:"locale_key,omitempty"`
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (b *BaseError) Error() string {
	return b.Message
}

// CodeOf returns the code of the first BaseError in err's chain.
func CodeOf(err error) (string, bool) {
	var be *BaseError
	if errors.As(err, &be) {
		return be.Code, true
	}
	return "", false
}
