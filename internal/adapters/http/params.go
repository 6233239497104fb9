package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// params is a flattened view of the request input. Scalars are kept as
// strings so numeric fields may arrive as JSON numbers or strings.
type params map[string][]string

// get returns the first value of key, or "".
func (p params) get(key string) string {
	if v := p[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// list returns every value of key. Form and query inputs may also use the
// "key[]" spelling.
func (p params) list(key string) []string {
	if v, ok := p[key]; ok {
		return v
	}
	return p[key+"[]"]
}

// readParams collects input from the first non-empty source: a JSON body,
// then form fields, then query parameters.
func readParams(c *fiber.Ctx) (params, error) {
	if body := c.Body(); len(bytes.TrimSpace(body)) > 0 && strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return jsonParams(body)
	}

	p := params{}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for k, v := range form.Value {
			p[k] = append(p[k], v...)
		}
	} else {
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			p[string(k)] = append(p[string(k)], string(v))
		})
	}
	if len(p) > 0 {
		return p, nil
	}

	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		p[string(k)] = append(p[string(k)], string(v))
	})
	return p, nil
}

func jsonParams(body []byte) (params, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	p := params{}
	for k, v := range raw {
		if items, ok := v.([]any); ok {
			vals := make([]string, 0, len(items))
			for _, item := range items {
				if s, ok := scalar(item); ok {
					vals = append(vals, s)
				}
			}
			p[k] = vals
			continue
		}
		if s, ok := scalar(v); ok {
			p[k] = []string{s}
		}
	}
	return p, nil
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// parseID parses a positive integer id, recording a field error on verr.
func parseID(field, raw string, verr *domain.ValidationError) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.Add(field, "is required")
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		verr.Add(field, "must be a positive integer")
		return 0
	}
	return id
}

// parseRadius parses an optional radius in km. Empty means the service
// default.
func parseRadius(field, raw string, verr *domain.ValidationError) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	km, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(km) || math.IsInf(km, 0) {
		verr.Add(field, "must be a decimal number")
		return 0
	}
	if km <= 0 {
		verr.Add(field, "must be greater than 0")
	}
	return km
}

// spotInputFrom maps request params onto the creation input. A malformed
// user id is left at zero for the service to reject.
func spotInputFrom(p params) domain.SpotInput {
	user, _ := strconv.ParseInt(strings.TrimSpace(p.get("user")), 10, 64)
	return domain.SpotInput{
		UserID:      user,
		Name:        p.get("name"),
		Country:     p.get("country"),
		CountryCode: p.get("country_code"),
		State:       p.get("state"),
		City:        p.get("city"),
		FullAddress: p.get("full_address"),
		PostalCode:  p.get("postal_code"),
		Lat:         p.get("lat"),
		Lng:         p.get("lng"),
		TagList:     p.list("tag_list"),
	}
}
