package utils

import "errors"

// Unrecognized affiliation filter values fail loudly, unlike unrecognized
// period tokens which silently fall back to the default window.
var ErrorInvalidAffiliation = errors.New("invalid affiliation")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
