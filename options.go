// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hattrie

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/masslbs/hattrie/ahtable"
)

// Options carries the tunables of a trie.
type Options struct {
	// BurstLimit is the number of keys a bucket may hold before it is burst
	// into smaller buckets on the next insert that reaches it. Higher values
	// mean fewer trie levels and lower memory at the cost of longer bucket
	// scans.
	BurstLimit int `validate:"gt=0"`

	// InitialSlots is the slot count of a freshly created bucket.
	InitialSlots int `validate:"gt=0,pow2"`

	// MaxLoad is the average number of records per slot a bucket tolerates
	// before doubling its slot count.
	MaxLoad float64 `validate:"gt=0"`
}

// DefaultOptions returns the default trie configuration.
func DefaultOptions() Options {
	return Options{
		BurstLimit:   8192,
		InitialSlots: 8,
		MaxLoad:      10.0,
	}
}

// DefaultValidator returns the validator used to check Options.
func DefaultValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.RegisterValidation("pow2", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n > 0 && n&(n-1) == 0
	})
	check(err)
	return validate
}

var validate = DefaultValidator()

func (o Options) validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("hattrie: invalid options: %w", err)
	}
	return nil
}

func (o Options) tableConfig() ahtable.Config {
	return ahtable.Config{Slots: o.InitialSlots, MaxLoad: o.MaxLoad}
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
