package enhance

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Variant names one of the two enhancement pipelines.
type Variant string

const (
	// VariantSafe runs ToneAdjuster then Resizer.
	VariantSafe Variant = "safe"

	// VariantPro runs LocalContrast (CLAHE), GammaCorrector then Resizer.
	VariantPro Variant = "pro"
)

// ParseVariant maps a case-insensitive name to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantSafe:
		return VariantSafe, nil
	case VariantPro:
		return VariantPro, nil
	}
	return "", &ConfigurationError{Field: "Variant", Value: s, Reason: "must be one of safe, pro"}
}

// Config holds every tunable of the enhancement pipelines.
//
// A Config is built once per request (or once per process) and treated as
// immutable afterwards. Use DefaultConfig to start from the standard listing
// photo settings and override individual fields.
type Config struct {
	// Variant is the pipeline used when a caller does not name one.
	Variant Variant `mapstructure:"variant" json:"variant" yaml:"variant" default:"safe" validate:"oneof=safe pro"`

	// Cutoff is the percentage of pixels trimmed from each end of every
	// channel histogram before auto-contrast stretching.
	Cutoff float64 `mapstructure:"cutoff" json:"cutoff" yaml:"cutoff" default:"1" validate:"finite,gte=0,lt=50"`

	Color      float64 `mapstructure:"color" json:"color" yaml:"color" default:"1.2" validate:"finite,gt=0"`
	Contrast   float64 `mapstructure:"contrast" json:"contrast" yaml:"contrast" default:"1.15" validate:"finite,gt=0"`
	Brightness float64 `mapstructure:"brightness" json:"brightness" yaml:"brightness" default:"1.1" validate:"finite,gt=0"`
	Sharpness  float64 `mapstructure:"sharpness" json:"sharpness" yaml:"sharpness" default:"1.1" validate:"finite,gt=0"`

	// ClipLimit is the CLAHE contrast limit relative to a flat histogram.
	// Zero disables clipping (plain adaptive equalization).
	ClipLimit float64 `mapstructure:"clip-limit" json:"clipLimit" yaml:"clip-limit" default:"2.0" validate:"finite,gte=0"`
	TileRows  int     `mapstructure:"tile-rows" json:"tileRows" yaml:"tile-rows" default:"8" validate:"gte=1,lte=64"`
	TileCols  int     `mapstructure:"tile-cols" json:"tileCols" yaml:"tile-cols" default:"8" validate:"gte=1,lte=64"`

	Gamma float64 `mapstructure:"gamma" json:"gamma" yaml:"gamma" default:"1.1" validate:"finite,gt=0"`

	// MaxSize bounds the longer output side in pixels. Zero disables resizing.
	MaxSize int `mapstructure:"max-size" json:"maxSize" yaml:"max-size" default:"2048" validate:"gte=0"`

	// Quality is the JPEG output quality.
	Quality int `mapstructure:"quality" json:"quality" yaml:"quality" default:"90" validate:"gte=1,lte=100"`

	// Filter selects the downscale resampler: lanczos, box, catmullrom or nfnt.
	Filter string `mapstructure:"filter" json:"filter" yaml:"filter" default:"lanczos" validate:"oneof=lanczos box catmullrom nfnt"`
}

// DefaultConfig returns the standard listing photo settings.
func DefaultConfig() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("enhance: invalid default tags: %v", err))
	}
	return c
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterValidations(v); err != nil {
		panic(fmt.Sprintf("enhance: %v", err))
	}
	return v
}

// RegisterValidations adds the custom tags used by Config to v. Any validator
// that walks a struct embedding Config needs them.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})
}

// Validate checks every field against its domain and reports the first
// violation as a *ConfigurationError.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigurationError{
			Field:  fe.Field(),
			Value:  fe.Value(),
			Reason: describeRule(fe.Tag(), fe.Param()),
		}
	}
	return &ConfigurationError{Reason: err.Error()}
}

func describeRule(tag, param string) string {
	switch tag {
	case "finite":
		return "must be a finite number"
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "lt":
		return "must be less than " + param
	case "lte":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	}
	return "failed " + tag + " check"
}
