// Package provider fetches owned units, the collection catalog and activity
// data from the game APIs or from local files.
package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/internal/solution"
	"github.com/ssolson/upOpt/pkg/validation"
)

var (
	// ErrMissingData is returned when a source yields no usable records.
	ErrMissingData = errors.New("missing external data")
	// ErrMalformed is returned when a record cannot be decoded. It is the
	// sentinel the validation package reports for unusable records.
	ErrMalformed = validation.ErrMalformedData
)

// UnitProvider returns the units a user owns.
type UnitProvider interface {
	Units(ctx context.Context, username string) ([]estate.Unit, error)
}

// CatalogProvider returns the collection catalog.
type CatalogProvider interface {
	Catalog(ctx context.Context) (estate.Catalog, error)
}

// ActivityProvider returns the units currently enrolled in collections.
type ActivityProvider interface {
	Activity(ctx context.Context, auth string) ([]solution.Enrollment, error)
}

// Inputs is what an optimization run needs from the outside world.
type Inputs struct {
	Units   []estate.Unit
	Catalog estate.Catalog
}

// FetchAll loads the units and the catalog concurrently. The first failure
// cancels the other request.
func FetchAll(ctx context.Context, units UnitProvider, catalog CatalogProvider, username string) (Inputs, error) {
	var in Inputs
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := units.Units(ctx, username)
		if err != nil {
			return fmt.Errorf("fetching units of %s: %w", username, err)
		}
		if len(u) == 0 {
			return fmt.Errorf("%w: %s owns no properties", ErrMissingData, username)
		}
		in.Units = u
		return nil
	})
	g.Go(func() error {
		c, err := catalog.Catalog(ctx)
		if err != nil {
			return fmt.Errorf("fetching collection catalog: %w", err)
		}
		in.Catalog = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}
