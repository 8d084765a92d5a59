package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/kosarica/catalog-service/internal/ai"
	"github.com/kosarica/catalog-service/internal/catalog"
)

// Tool binds a declaration to its executor. Terminal tools short-circuit
// the loop: after their output is emitted the turn ends without another
// model call, which keeps plain product queries to a single round trip.
type Tool struct {
	Decl     ai.ToolDecl
	Terminal bool
	Run      func(ctx context.Context, userID int64, args json.RawMessage) (any, error)
}

// Registry holds the domain tools exposed to the model.
type Registry struct {
	tools map[string]Tool
	order []string
}

func (r *Registry) add(t Tool) {
	r.tools[t.Decl.Name] = t
	r.order = append(r.order, t.Decl.Name)
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Declarations returns the tool declarations in registration order.
func (r *Registry) Declarations() []ai.ToolDecl {
	decls := make([]ai.ToolDecl, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Decl)
	}
	return decls
}

func schemaFor(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return reflector.Reflect(v)
}

type searchProductsParams struct {
	Q        string  `json:"q" jsonschema:"required,description=Pojam pretrage proizvoda"`
	StoreIDs []int64 `json:"store_ids,omitempty" jsonschema:"description=Ograniči na ove trgovine"`
	SortBy   string  `json:"sort_by,omitempty" jsonschema:"enum=relevance,enum=best_value_kg,enum=best_value_l,enum=best_value_piece"`
	Category string  `json:"category,omitempty"`
	Brand    string  `json:"brand,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

type pricesByLocationParams struct {
	ProductID int64   `json:"product_id" jsonschema:"required,description=ID proizvoda"`
	StoreIDs  []int64 `json:"store_ids" jsonschema:"required,description=Trgovine za usporedbu cijena"`
}

type productDetailsParams struct {
	ProductID int64 `json:"product_id" jsonschema:"required,description=ID proizvoda"`
}

type nearbyStoresParams struct {
	Lat          float64 `json:"lat" jsonschema:"required"`
	Lon          float64 `json:"lon" jsonschema:"required"`
	RadiusMeters float64 `json:"radius_meters" jsonschema:"required,description=Polumjer pretrage u metrima"`
	ChainCode    string  `json:"chain_code,omitempty" jsonschema:"description=Ograniči na jedan trgovački lanac"`
}

type userLocationsParams struct{}

// NewRegistry wires the five domain tools over the catalog service.
func NewRegistry(svc *catalog.Service) *Registry {
	r := &Registry{tools: make(map[string]Tool)}

	r.add(Tool{
		Decl: ai.ToolDecl{
			Name:        "search_products_v2",
			Description: "Pretražuje proizvode po nazivu ili opisu. Podržava sortiranje po najboljoj cijeni po kg/l/komadu.",
			Parameters:  schemaFor(searchProductsParams{}),
		},
		Terminal: true,
		Run: func(ctx context.Context, userID int64, args json.RawMessage) (any, error) {
			var p searchProductsParams
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, fmt.Errorf("bad search arguments: %w", err)
			}
			return svc.SearchProducts(ctx, catalog.SearchParams{
				Query:    p.Q,
				StoreIDs: p.StoreIDs,
				SortBy:   catalog.SortBy(p.SortBy),
				Category: p.Category,
				Brand:    p.Brand,
				Limit:    p.Limit,
				Offset:   p.Offset,
			})
		},
	})

	r.add(Tool{
		Decl: ai.ToolDecl{
			Name:        "get_product_prices_by_location_v2",
			Description: "Dohvaća cijene proizvoda u zadanim trgovinama, od najjeftinije.",
			Parameters:  schemaFor(pricesByLocationParams{}),
		},
		Run: func(ctx context.Context, userID int64, args json.RawMessage) (any, error) {
			var p pricesByLocationParams
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, fmt.Errorf("bad price lookup arguments: %w", err)
			}
			return svc.GetProductPricesByLocation(ctx, p.ProductID, p.StoreIDs)
		},
	})

	r.add(Tool{
		Decl: ai.ToolDecl{
			Name:        "get_product_details_v2",
			Description: "Dohvaća kanonski zapis proizvoda s najboljim ponudama.",
			Parameters:  schemaFor(productDetailsParams{}),
		},
		Run: func(ctx context.Context, userID int64, args json.RawMessage) (any, error) {
			var p productDetailsParams
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, fmt.Errorf("bad product details arguments: %w", err)
			}
			return svc.GetProductDetails(ctx, p.ProductID)
		},
	})

	r.add(Tool{
		Decl: ai.ToolDecl{
			Name:        "find_nearby_stores_v2",
			Description: "Pronalazi trgovine unutar zadanog polumjera od lokacije, najbliže prvo.",
			Parameters:  schemaFor(nearbyStoresParams{}),
		},
		Run: func(ctx context.Context, userID int64, args json.RawMessage) (any, error) {
			var p nearbyStoresParams
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, fmt.Errorf("bad nearby stores arguments: %w", err)
			}
			return svc.FindNearbyStores(ctx, p.Lat, p.Lon, p.RadiusMeters, p.ChainCode)
		},
	})

	r.add(Tool{
		Decl: ai.ToolDecl{
			Name:        "get_user_locations",
			Description: "Dohvaća spremljene lokacije korisnika.",
			Parameters:  schemaFor(userLocationsParams{}),
		},
		Run: func(ctx context.Context, userID int64, args json.RawMessage) (any, error) {
			return svc.GetUserLocations(ctx, userID)
		},
	})

	return r
}
