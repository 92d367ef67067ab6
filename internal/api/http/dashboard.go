package httpapi

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type searchRequest struct {
	City string `json:"city" validate:"required,max=100"`
}

type locateRequest struct {
	Lat         *float64 `json:"lat" validate:"required_without=Unavailable,omitempty,gte=-90,lte=90"`
	Lon         *float64 `json:"lon" validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Unavailable bool     `json:"unavailable"`
}

type unitsRequest struct {
	Units string `json:"units" validate:"required,oneof=metric imperial"`
}

type mockRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// sessionMiddleware resolves the caller's dashboard from the X-Session-ID
// header or the session_id cookie, issuing a new session when neither matches.
func sessionMiddleware(mgr *dashboard.Manager, maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(SessionHeader)
		if id == "" {
			id = c.Cookies(SessionCookie)
		}

		d, created, err := mgr.Get(c.UserContext(), id)
		if err != nil {
			log.Printf("ERROR: resolving session: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "session unavailable")
		}
		if created {
			log.Printf("INFO: issued session %s", d.ID())
		}

		cookie := &fiber.Cookie{
			Name:     SessionCookie,
			Value:    d.ID(),
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		}
		if maxAge > 0 {
			cookie.MaxAge = int(maxAge.Seconds())
		}
		c.Cookie(cookie)
		c.Set(SessionHeader, d.ID())
		c.Locals(localsDashboard, d)
		return c.Next()
	}
}

func dashboardFrom(c *fiber.Ctx) *dashboard.Dashboard {
	return c.Locals(localsDashboard).(*dashboard.Dashboard)
}

func registerDashboardRoutes(r fiber.Router) {
	r.Get("/", func(c *fiber.Ctx) error {
		d := dashboardFrom(c)
		return respond(c, d, d.EnsureLoaded(c.UserContext()))
	})

	r.Post("/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		d := dashboardFrom(c)
		return respond(c, d, d.Search(c.UserContext(), req.City))
	})

	r.Post("/locate", func(c *fiber.Ctx) error {
		var req locateRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}

		var pos *dashboard.Coordinates
		if !req.Unavailable && req.Lat != nil && req.Lon != nil {
			pos = &dashboard.Coordinates{Lat: *req.Lat, Lon: *req.Lon}
		}
		d := dashboardFrom(c)
		return respond(c, d, d.Locate(c.UserContext(), pos))
	})

	r.Post("/refresh", func(c *fiber.Ctx) error {
		d := dashboardFrom(c)
		return respond(c, d, d.Refresh(c.UserContext()))
	})

	r.Put("/units", func(c *fiber.Ctx) error {
		var req unitsRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		units, err := weather.ParseUnits(req.Units)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		d := dashboardFrom(c)
		return respond(c, d, d.SetUnits(c.UserContext(), units))
	})

	r.Put("/mock", func(c *fiber.Ctx) error {
		var req mockRequest
		if err := bindBody(c, &req); err != nil {
			return err
		}
		d := dashboardFrom(c)
		return respond(c, d, d.SetMock(c.UserContext(), *req.Enabled))
	})

	r.Delete("/history", func(c *fiber.Ctx) error {
		d := dashboardFrom(c)
		d.ClearHistory(c.UserContext())
		return c.JSON(d.View())
	})
}

// respond renders the dashboard view. Fetch failures are already reflected in
// the view's error message and the previous snapshot stays visible, so only
// input errors change the status code.
func respond(c *fiber.Ctx, d *dashboard.Dashboard, err error) error {
	if errors.Is(err, dashboard.ErrEmptyCity) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(d.View())
}

func bindBody(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
