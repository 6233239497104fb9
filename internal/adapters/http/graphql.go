package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema wired to our services.
// Fields resolve through the json tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	spotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Spot",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.Int},
			"user":         &graphql.Field{Type: graphql.Int},
			"name":         &graphql.Field{Type: graphql.String},
			"location":     &graphql.Field{Type: geoPointType},
			"country":      &graphql.Field{Type: graphql.String},
			"country_code": &graphql.Field{Type: graphql.String},
			"state":        &graphql.Field{Type: graphql.String},
			"city":         &graphql.Field{Type: graphql.String},
			"full_address": &graphql.Field{Type: graphql.String},
			"postal_code":  &graphql.Field{Type: graphql.String},
			"created_at":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	tagType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tag",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.Int},
			"name": &graphql.Field{Type: graphql.String},
		},
	})

	spotDetailsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SpotDetails",
		Fields: graphql.Fields{
			"spot":    &graphql.Field{Type: spotType},
			"tagList": &graphql.Field{Type: graphql.NewList(tagType)},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlaceInformation",
		Fields: graphql.Fields{
			"country_name": &graphql.Field{Type: graphql.String},
			"country_code": &graphql.Field{Type: graphql.String},
			"state_name":   &graphql.Field{Type: graphql.String},
			"city_name":    &graphql.Field{Type: graphql.String},
			"postal_code":  &graphql.Field{Type: graphql.String},
			"full_address": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"spot": &graphql.Field{
				Type:        spotDetailsType,
				Description: "A spot with its tags",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					details, err := deps.Spots.GetWithTags(p.Context, int64(p.Args["id"].(int)))
					if errors.Is(err, domain.ErrNotFound) {
						return nil, nil
					}
					return details, err
				},
			},
			"userSpots": &graphql.Field{
				Type:        graphql.NewList(spotType),
				Description: "Spots created by a user, newest first",
				Args: graphql.FieldConfigArgument{
					"user": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Spots.ListByUser(p.Context, int64(p.Args["user"].(int)))
				},
			},
			"nearby": &graphql.Field{
				Type:        graphql.NewList(geoPointType),
				Description: "Coordinates of spots near a point; empty unless the user owns one of them",
				Args: graphql.FieldConfigArgument{
					"user":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					points, _, err := deps.Spots.ListNearby(p.Context,
						int64(p.Args["user"].(int)), center, p.Args["radius_km"].(float64))
					return points, err
				},
			},
			"tags": &graphql.Field{
				Type:        graphql.NewList(tagType),
				Description: "All active tags",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Tags.ListTags(p.Context)
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Reverse-geocoded place information",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Places.ReverseGeocode(p.Context, p.Args["lat"].(string), p.Args["lng"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
