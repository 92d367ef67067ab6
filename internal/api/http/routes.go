package httpapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"

	localsDashboard = "dashboard"
)

var validate = validator.New()

// Proxier forwards the read-only provider endpoints.
type Proxier interface {
	Proxy(ctx context.Context, ep providers.ProxyEndpoint, params url.Values) ([]byte, error)
}

// Deps are the collaborators the routes need. Nil members disable their
// route group.
type Deps struct {
	Proxy        Proxier
	Snapshots    dashboard.Snapshotter
	Dashboards   *dashboard.Manager
	DefaultUnits weather.Units
	// SessionMaxAge sets the session cookie lifetime; 0 means a browser session cookie.
	SessionMaxAge time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.DefaultUnits == "" {
		deps.DefaultUnits = weather.UnitsMetric
	}

	if deps.Proxy != nil {
		api := app.Group("/api")
		api.Get("/weather", proxyHandler(deps.Proxy, providers.ProxyCurrent))
		api.Get("/forecast", proxyHandler(deps.Proxy, providers.ProxyForecast))
		api.Get("/geo/direct", proxyHandler(deps.Proxy, providers.ProxyGeoDirect))
		api.Get("/geo/reverse", proxyHandler(deps.Proxy, providers.ProxyGeoReverse))
	}

	v1 := app.Group("/api/v1")

	if deps.Snapshots != nil {
		v1.Get("/snapshot", func(c *fiber.Ctx) error {
			req, err := parseSnapshotQuery(c, deps.DefaultUnits)
			if err != nil {
				return err
			}

			snap, err := deps.Snapshots.GetSnapshot(c.UserContext(), req.query(), req.units())
			if err != nil {
				return toHTTPError(err)
			}
			return c.JSON(snap)
		})
	}

	if deps.Dashboards != nil {
		registerDashboardRoutes(v1.Group("/dashboard", sessionMiddleware(deps.Dashboards, deps.SessionMaxAge)))
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		fe = toHTTPError(err)
	}
	return c.Status(fe.Code).JSON(fiber.Map{
		"error":   true,
		"message": fe.Message,
	})
}

// toHTTPError maps domain errors onto status codes.
func toHTTPError(err error) *fiber.Error {
	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.As(err, &ve):
		return fiber.NewError(fiber.StatusBadRequest, ve.Error())
	case weather.IsNotFound(err):
		return fiber.NewError(fiber.StatusNotFound, dashboard.MsgNotFound)
	case weather.IsUpstream(err):
		return fiber.NewError(fiber.StatusBadGateway, dashboard.MsgFetchFailed)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

func proxyHandler(p Proxier, ep providers.ProxyEndpoint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params, err := parseProxyParams(c, ep)
		if err != nil {
			return err
		}

		body, err := p.Proxy(c.UserContext(), ep, params)
		if err != nil {
			var ue *weather.UpstreamError
			if errors.As(err, &ue) && ue.Status != 0 {
				// Upstream answered; relay its status and body unchanged.
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(ue.Status).SendString(ue.Body)
			}
			return fiber.NewError(fiber.StatusBadGateway, "upstream request failed")
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	}
}

// proxyQuery holds the parameters a proxy endpoint accepts.
type proxyQuery struct {
	Q   string   `validate:"required_without=Lat,omitempty,min=1"`
	Lat *float64 `validate:"required_without=Q,omitempty,gte=-90,lte=90"`
	Lon *float64 `validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
}

func parseProxyParams(c *fiber.Ctx, ep providers.ProxyEndpoint) (url.Values, error) {
	var q proxyQuery
	var err error

	if ep == providers.ProxyGeoDirect {
		q.Q = strings.TrimSpace(c.Query("q"))
		if q.Q == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}
	} else {
		if q.Lat, err = parseFloatParam(c, "lat"); err != nil {
			return nil, err
		}
		if q.Lon, err = parseFloatParam(c, "lon"); err != nil {
			return nil, err
		}
		if q.Lat == nil || q.Lon == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters are required")
		}
	}

	if err := validate.Struct(q); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	values := url.Values{}
	if q.Q != "" {
		values.Set("q", q.Q)
	}
	if q.Lat != nil {
		values.Set("lat", strconv.FormatFloat(*q.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(*q.Lon, 'f', -1, 64))
	}
	return values, nil
}

// snapshotQuery holds query parameters for the snapshot endpoint.
type snapshotQuery struct {
	City  string   `validate:"required_without=Lat"`
	Lat   *float64 `validate:"required_without=City,required_with=Lon,omitempty,gte=-90,lte=90"`
	Lon   *float64 `validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Name  string
	Units string `validate:"omitempty,oneof=metric imperial"`
}

func (s snapshotQuery) query() weather.Query {
	if s.Lat != nil && s.Lon != nil {
		q := weather.CoordinatesQuery(*s.Lat, *s.Lon)
		q.Name = s.Name
		return q
	}
	return weather.CityQuery(s.City)
}

func (s snapshotQuery) units() weather.Units {
	return weather.Units(s.Units)
}

func parseSnapshotQuery(c *fiber.Ctx, defaultUnits weather.Units) (snapshotQuery, error) {
	var q snapshotQuery
	var err error

	q.City = strings.TrimSpace(c.Query("city"))
	q.Name = strings.TrimSpace(c.Query("name"))
	q.Units = strings.ToLower(c.Query("units", string(defaultUnits)))

	if q.Lat, err = parseFloatParam(c, "lat"); err != nil {
		return q, err
	}
	if q.Lon, err = parseFloatParam(c, "lon"); err != nil {
		return q, err
	}

	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, nil
}

func parseFloatParam(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+": must be a number")
	}
	return &v, nil
}
