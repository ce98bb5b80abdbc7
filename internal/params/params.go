package params

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nthaan/Mini-Photoshop/internal/image"
)

// Form field names
const (
	FieldFile       = "file"
	FieldBrightness = "brightness"
	FieldContrast   = "contrast"
	FieldBlur       = "blur"
	FieldInvert     = "invert"
	FieldGrayscale  = "grayscale"
	FieldEdge       = "edge"
	FieldRotate     = "rotate"
)

// GetParams reads the filter parameters from the request's form body
// Missing values keep their default, as do values that can't be parsed. The names of the latter are returned as ignored.
func GetParams(r *http.Request) (p image.Params, ignored []string) {
	p = image.DefaultParams()

	parse := func(name string, parser func(value string) bool) {
		value, ok := formValue(r, name)
		if !ok {
			return
		}

		if !parser(value) {
			ignored = append(ignored, name)
		}
	}

	parse(FieldBrightness, intParser(&p.Brightness))
	parse(FieldContrast, floatParser(&p.Contrast))
	parse(FieldBlur, intParser(&p.Blur))
	parse(FieldInvert, boolParser(&p.Invert))
	parse(FieldGrayscale, boolParser(&p.Grayscale))
	parse(FieldEdge, boolParser(&p.Edge))
	parse(FieldRotate, intParser(&p.Rotate))

	return p, ignored
}

// formValue returns the first non-empty value of a body field
func formValue(r *http.Request, name string) (string, bool) {
	if r.PostForm == nil {
		return "", false
	}

	value := strings.TrimSpace(r.PostForm.Get(name))
	return value, value != ""
}

func intParser(dst *int) func(string) bool {
	return func(value string) bool {
		v, err := strconv.Atoi(value)
		if err != nil {
			return false
		}

		*dst = v
		return true
	}
}

func floatParser(dst *float64) func(string) bool {
	return func(value string) bool {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}

		*dst = v
		return true
	}
}

func boolParser(dst *bool) func(string) bool {
	return func(value string) bool {
		switch strings.ToLower(value) {
		case "1", "t", "true", "y", "yes", "on":
			*dst = true
		case "0", "f", "false", "n", "no", "off":
			*dst = false
		default:
			return false
		}

		return true
	}
}
