package domain

import "errors"

var errZeroAmount = errors.New("zero amount")
