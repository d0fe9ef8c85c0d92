package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodedLocation is the parsed form of the packed event location string.
type DecodedLocation struct {
	AddressLabel *string  `json:"address_label"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// EncodeEventLocation packs an address and coordinates into the storage format
// "{address}!longitude={lng}&latitude={lat}".
func EncodeEventLocation(address string, longitude, latitude float64) string {
	return fmt.Sprintf("%s!longitude=%v&latitude=%v", address, longitude, latitude)
}

// DecodeEventLocation parses the packed location string. Missing or malformed
// parts come back as nil rather than an error: old rows may hold a bare address.
func DecodeEventLocation(raw string) DecodedLocation {
	if raw == "" {
		return DecodedLocation{}
	}
	addressPart, coordsPart, found := strings.Cut(raw, "!longitude=")
	var label *string
	if trimmed := strings.TrimSpace(addressPart); trimmed != "" {
		label = &trimmed
	}
	if !found {
		return DecodedLocation{AddressLabel: label}
	}
	lngStr, latStr, found := strings.Cut(coordsPart, "&latitude=")
	if !found {
		return DecodedLocation{AddressLabel: label}
	}
	out := DecodedLocation{AddressLabel: label}
	if lng, err := strconv.ParseFloat(lngStr, 64); err == nil {
		out.Longitude = &lng
	}
	if lat, err := strconv.ParseFloat(latStr, 64); err == nil {
		out.Latitude = &lat
	}
	return out
}

const earthRadiusKm = 6371

// HaversineDistanceKm returns the great-circle distance in kilometers between
// two coordinate pairs.
func HaversineDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	rLat1 := toRad(lat1)
	rLat2 := toRad(lat2)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(rLat1)*math.Cos(rLat2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
