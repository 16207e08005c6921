// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package rest

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator checks that bound requests hold the required fields in the
// expected format.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new request validator.
func NewValidator() *Validator {

	v := Validator{
		validate: validator.New(),
	}

	return &v
}

// Request validates the given request and returns an error describing the
// first invalid field.
func (v *Validator) Request(request interface{}) error {

	err := v.validate.Struct(request)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("could not validate request: %w", err)
	}

	field := errs[0]
	switch field.Tag() {
	case "required":
		return fmt.Errorf("missing field %q", field.Field())
	case "hostname_port":
		return fmt.Errorf("invalid peer address %q (want host:port)", field.Value())
	default:
		return fmt.Errorf("invalid field %q (tag: %s)", field.Field(), field.Tag())
	}
}
