package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/internal/solution"
	"github.com/ssolson/upOpt/pkg/constants"
)

// ParseUnits decodes a property feed payload. The feed nests properties under
// data.properties; a bare array is accepted as well.
func ParseUnits(payload []byte) ([]estate.Unit, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: property feed is not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(payload)
	list := root.Get("data.properties")
	if !list.Exists() && root.IsArray() {
		list = root
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: property feed has no property list", ErrMissingData)
	}

	var units []estate.Unit
	var parseErr error
	list.ForEach(func(_, v gjson.Result) bool {
		unit, err := parseUnit(v)
		if err != nil {
			parseErr = err
			return false
		}
		units = append(units, unit)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return units, nil
}

func parseUnit(v gjson.Result) (estate.Unit, error) {
	id, ok := intField(v, "_id")
	if !ok {
		id, ok = intField(v, "id")
	}
	if !ok {
		return estate.Unit{}, fmt.Errorf("%w: property without an id: %s", ErrMalformed, truncate(v.Raw))
	}
	yield, ok := floatField(v, "yield_per_hour")
	if !ok {
		return estate.Unit{}, fmt.Errorf("%w: property %d has no yield_per_hour", ErrMalformed, id)
	}

	propID, _ := intField(v, "prop_id")
	city, _ := intField(v, "city_id")
	street, _ := intField(v, "street_id")
	mint, _ := floatField(v, "mint_price")
	address := v.Get("full_address").String()
	if address == constants.UnknownPlaceholder {
		address = ""
	}

	unit := estate.Unit{
		ID:        id,
		PropID:    propID,
		Yield:     yield,
		City:      int(city),
		Street:    street,
		Address:   address,
		MintPrice: mint,
	}
	var err error
	v.Get("collections").ForEach(func(_, c gjson.Result) bool {
		cid, ok := intField(c, "id")
		if !ok {
			err = fmt.Errorf("%w: property %d has a collection without an id", ErrMalformed, id)
			return false
		}
		boost, ok := floatField(c, "yield_boost")
		if !ok {
			err = fmt.Errorf("%w: property %d collection %d has no yield_boost", ErrMalformed, id, cid)
			return false
		}
		unit.Memberships = append(unit.Memberships, estate.Membership{CollectionID: int(cid), Boost: boost})
		return true
	})
	return unit, err
}

// ParseCatalog decodes the collection catalog payload.
func ParseCatalog(payload []byte) (estate.Catalog, error) {
	if !gjson.ValidBytes(payload) {
		return estate.Catalog{}, fmt.Errorf("%w: collection catalog is not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(payload)
	if !root.IsArray() {
		return estate.Catalog{}, fmt.Errorf("%w: collection catalog is not a list", ErrMissingData)
	}

	var collections []estate.Collection
	var parseErr error
	root.ForEach(func(_, v gjson.Result) bool {
		id, ok := intField(v, "id")
		if !ok {
			parseErr = fmt.Errorf("%w: collection without an id: %s", ErrMalformed, truncate(v.Raw))
			return false
		}
		amount, ok := intField(v, "amount")
		if !ok {
			parseErr = fmt.Errorf("%w: collection %d has no amount", ErrMalformed, id)
			return false
		}
		boost, ok := floatField(v, "yield_boost")
		if !ok {
			parseErr = fmt.Errorf("%w: collection %d has no yield_boost", ErrMalformed, id)
			return false
		}
		city, _ := intField(v, "city_id")
		collections = append(collections, estate.Collection{
			ID:       int(id),
			Name:     v.Get("name").String(),
			Required: int(amount),
			Boost:    boost,
			City:     int(city),
		})
		return true
	})
	if parseErr != nil {
		return estate.Catalog{}, parseErr
	}
	return newCatalog(collections)
}

type catalogFile struct {
	Collections []estate.Collection `yaml:"collections"`
}

// ParseCatalogYAML decodes a catalog written as YAML:
//
//	collections:
//	  - id: 7
//	    name: Newbie
//	    amount: 1
//	    yield_boost: 1.1
func ParseCatalogYAML(payload []byte) (estate.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(payload, &file); err != nil {
		return estate.Catalog{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(file.Collections) == 0 {
		return estate.Catalog{}, fmt.Errorf("%w: catalog file lists no collections", ErrMissingData)
	}
	return newCatalog(file.Collections)
}

func newCatalog(collections []estate.Collection) (estate.Catalog, error) {
	catalog, err := estate.NewCatalog(collections)
	if err != nil {
		return estate.Catalog{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return catalog, nil
}

// ParseActivity decodes the authenticated yield feed.
func ParseActivity(payload []byte) ([]solution.Enrollment, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: activity feed is not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(payload)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: activity feed is not a list", ErrMissingData)
	}
	var out []solution.Enrollment
	root.ForEach(func(_, v gjson.Result) bool {
		propID, ok := intField(v, "prop_id")
		if !ok {
			return true
		}
		boost, ok := floatField(v, "collection_boost")
		if !ok {
			boost = 1
		}
		out = append(out, solution.Enrollment{
			PropID:  propID,
			Address: v.Get("full_address").String(),
			Boost:   boost,
		})
		return true
	})
	return out, nil
}

// intField reads a numeric field that may be encoded as a number or a string.
// Missing fields and the Unknown placeholder report false.
func intField(v gjson.Result, path string) (int64, bool) {
	f := v.Get(path)
	switch f.Type {
	case gjson.Number:
		return f.Int(), true
	case gjson.String:
		s := strings.TrimSpace(f.String())
		if s == "" || s == constants.UnknownPlaceholder {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			if x, ferr := strconv.ParseFloat(s, 64); ferr == nil {
				return int64(x), true
			}
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func floatField(v gjson.Result, path string) (float64, bool) {
	f := v.Get(path)
	switch f.Type {
	case gjson.Number:
		return f.Float(), true
	case gjson.String:
		s := strings.TrimSpace(f.String())
		if s == "" || s == constants.UnknownPlaceholder {
			return 0, false
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return x, true
	default:
		return 0, false
	}
}

func truncate(raw string) string {
	if len(raw) > 80 {
		return raw[:80] + "..."
	}
	return raw
}
