package client

import "errors"

var ErrEmptyCredentials = errors.New("email and password are required")
