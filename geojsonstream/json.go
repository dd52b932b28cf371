// Package geojsonstream reads GeoJSON documents feature by feature and
// writes feature collections incrementally.
package geojsonstream

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb/geojson"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	geojson.CustomJSONMarshaler = jsonAPI
	geojson.CustomJSONUnmarshaler = jsonAPI
}
