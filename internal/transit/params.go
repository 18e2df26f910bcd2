package transit

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/star/exotransit/internal/units"
)

// MaxSamples bounds the sample count of a single light curve.
const MaxSamples = 10000

// Params are the user-facing inputs of one light-curve computation.
type Params struct {
	PlanetRadius float64      `json:"planet_radius" validate:"gt=0"`
	StarRadius   float64      `json:"star_radius" validate:"gt=0"`
	Distance     float64      `json:"distance" validate:"gte=0"`
	Temperature  float64      `json:"temperature" validate:"gt=0"`  // thousands of K
	StellarMass  float64      `json:"stellar_mass" validate:"gt=0"` // solar masses
	Units        units.System `json:"units" validate:"oneof=physical arbitrary"`
	Policy       Policy       `json:"policy" validate:"oneof=sweep orbit"`
	Samples      int          `json:"samples" validate:"gte=2,lte=10000"`
}

// DefaultParams describes an Earth analogue crossing a Sun analogue.
func DefaultParams() Params {
	return Params{
		PlanetRadius: 1,
		StarRadius:   1,
		Distance:     1,
		Temperature:  5.7,
		StellarMass:  1,
		Units:        units.Physical,
		Policy:       PolicySweep,
		Samples:      DefaultSamples,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns a *ParameterError for the first offending field.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"planet_radius", p.PlanetRadius},
		{"star_radius", p.StarRadius},
		{"distance", p.Distance},
		{"temperature", p.Temperature},
		{"stellar_mass", p.StellarMass},
	} {
		if math.IsInf(f.v, 0) {
			return paramErr(f.name, f.v, "must be finite")
		}
	}

	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return paramErr(fe.Field(), fe.Value(), describeTag(fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
}

func describeTag(tag, param string) string {
	switch tag {
	case "gt":
		return "must be > " + param
	case "gte":
		return "must be >= " + param
	case "lte":
		return "must be <= " + param
	case "oneof":
		return "must be one of: " + param
	default:
		return "failed " + tag + " check"
	}
}
