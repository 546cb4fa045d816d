package model

import "errors"

var ErrorInvalidEmailOrPassword = errors.New("invalid email or password")
var ErrorDuplicateEmail = errors.New("an account with this email already exists")
var ErrorUserNotFound = errors.New("user not found")
var ErrorAccountDeactivated = errors.New("account deactivated")
var ErrorAuthorMismatch = errors.New("author mismatch")
var ErrorMessageNotFound = errors.New("message not found")
var ErrorEmptyMessage = errors.New("message has no body and no attachment")
var ErrorLinkExpired = errors.New("signed link expired")
var ErrorInvalidLink = errors.New("invalid signed link")
