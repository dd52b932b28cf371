package geojsonstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb/geojson"
)

var ErrUnsupportedDocument = errors.New("unsupported geojson document")

const readBufferSize = 64 * 1024

// Decode reads a FeatureCollection, a single Feature or a bare Geometry from
// r and calls fn for every feature in document order. Collection members are
// decoded one at a time, the collection is never held in memory. A bare
// geometry is passed as a feature without properties.
//
// Decoding stops at the first error returned by fn, that error is returned
// as is.
func Decode(r io.Reader, fn func(*geojson.Feature) error) error {
	iter := jsoniter.Parse(jsonAPI, r, readBufferSize)

	if next := iter.WhatIsNext(); next != jsoniter.ObjectValue {
		if iter.Error != nil {
			return parseError(iter.Error)
		}
		return fmt.Errorf("%w: top level value is not an object", ErrUnsupportedDocument)
	}

	var (
		fnErr    error
		index    int
		members  = map[string]json.RawMessage{}
		streamed bool
	)

	iter.ReadObjectCB(func(iter *jsoniter.Iterator, field string) bool {
		if field != "features" {
			members[field] = iter.SkipAndReturnBytes()
			return iter.Error == nil
		}

		streamed = true
		iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
			raw := iter.SkipAndReturnBytes()
			if iter.Error != nil {
				return false
			}

			f, err := geojson.UnmarshalFeature(raw)
			if err != nil {
				fnErr = fmt.Errorf("feature %d: %w", index, err)
				return false
			}
			index++

			if err := fn(f); err != nil {
				fnErr = err
				return false
			}
			return true
		})

		return fnErr == nil && iter.Error == nil
	})

	if fnErr != nil {
		return fnErr
	}
	if iter.Error != nil {
		return parseError(iter.Error)
	}

	var docType string
	if raw, ok := members["type"]; ok {
		if err := jsonAPI.Unmarshal(raw, &docType); err != nil {
			return fmt.Errorf("%w: invalid type member: %s", ErrUnsupportedDocument, err.Error())
		}
	}

	switch docType {
	case "FeatureCollection":
		return nil

	case "Feature":
		data, err := jsonAPI.Marshal(members)
		if err != nil {
			return err
		}
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return fmt.Errorf("feature: %w", err)
		}
		return fn(f)

	case "":
		if streamed {
			// collection without a type member, features are already delivered
			return nil
		}
		return fmt.Errorf("%w: missing type member", ErrUnsupportedDocument)

	default:
		data, err := jsonAPI.Marshal(members)
		if err != nil {
			return err
		}
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %s", ErrUnsupportedDocument, docType, err.Error())
		}
		return fn(geojson.NewFeature(g.Geometry()))
	}
}

func parseError(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("parse geojson: %w", err)
}
