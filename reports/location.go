package reports

import (
	"math"
	"strconv"
	"strings"

	"civicsync-web/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// LocationForm is the raw input of the location dialog. Coordinates arrive as
// text so that both geolocation results and manual entry share one path.
type LocationForm struct {
	Name     string `json:"name"`
	District string `json:"district"`
	Contact  string `json:"contact"`
	Lat      string `json:"lat"`
	Lng      string `json:"lng"`
}

// Pin is a validated location with its reporter.
type Pin struct {
	Location models.Location `json:"location"`
	Reporter models.Reporter `json:"reporter"`
}

// ValidateLocation checks the dialog fields in display order and reports
// the first failure only.
func ValidateLocation(form LocationForm) (Pin, error) {
	name := strings.TrimSpace(form.Name)
	district := strings.TrimSpace(form.District)
	latText := strings.TrimSpace(form.Lat)
	lngText := strings.TrimSpace(form.Lng)

	if validate.Var(name, "required") != nil {
		return Pin{}, models.FieldError("name", "map.error.nameRequired")
	}
	if validate.Var(district, "required") != nil {
		return Pin{}, models.FieldError("district", "map.error.districtRequired")
	}
	if validate.Var(latText, "required") != nil || validate.Var(lngText, "required") != nil {
		return Pin{}, models.FieldError("latlng", "map.error.latLngRequired")
	}

	lat, latErr := parseCoordinate(latText)
	lng, lngErr := parseCoordinate(lngText)
	if latErr != nil || lngErr != nil {
		return Pin{}, models.FieldError("latlng", "map.error.invalidLatLng")
	}
	if validate.Var(lat, "gte=-90,lte=90") != nil {
		return Pin{}, models.FieldError("lat", "map.error.invalidLatRange")
	}
	if validate.Var(lng, "gte=-180,lte=180") != nil {
		return Pin{}, models.FieldError("lng", "map.error.invalidLngRange")
	}

	return Pin{
		Location: models.Location{Lat: lat, Lng: lng},
		Reporter: models.Reporter{
			Name:     name,
			District: district,
			Contact:  strings.TrimSpace(form.Contact),
		},
	}, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
