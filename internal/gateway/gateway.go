// Package gateway serves the listing, search and comparison pages as a JSON
// API for front ends that do not embed the Go client.
package gateway

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/compare"
	"github.com/lukman83/pricehub/internal/listing"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/nav"
)

// Config wires the gateway to a catalog source.
type Config struct {
	Source         catalog.Source
	PerPage        int
	AllowedOrigins string
	// Quiet disables the request logger.
	Quiet bool
}

type handler struct {
	source  catalog.Source
	perPage int
}

// New builds the fiber app with all routes registered.
func New(cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if !cfg.Quiet {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	origins := cfg.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	h := &handler{source: cfg.Source, perPage: cfg.PerPage}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/products", h.listProducts)
	api.Get("/search", h.searchProducts)
	api.Post("/compare", h.compareProducts)
	api.Get("/menu", func(c *fiber.Ctx) error {
		return c.JSON(nav.DefaultMenu())
	})

	return app
}

func (h *handler) listProducts(c *fiber.Ctx) error {
	q, err := parseQuery(c)
	if err != nil {
		return err
	}
	q.Search = ""
	return h.respondListing(c, q)
}

func (h *handler) searchProducts(c *fiber.Ctx) error {
	q, err := parseQuery(c)
	if err != nil {
		return err
	}
	if q.Search == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q is required")
	}
	return h.respondListing(c, q)
}

func (h *handler) respondListing(c *fiber.Ctx, q listing.Query) error {
	ctrl := listing.NewController(h.source, h.perPage)
	if err := ctrl.Open(c.UserContext(), q); err != nil {
		return err
	}
	return c.JSON(ctrl.View())
}

type compareRequest struct {
	IDs        []string `json:"ids"`
	Categories []string `json:"categories"`
}

type compareResponse struct {
	Breadcrumb string           `json:"breadcrumb"`
	Products   []models.Product `json:"products"`
	Table      compare.Table    `json:"table"`
	Warnings   []string         `json:"warnings,omitempty"`
}

func (h *handler) compareProducts(c *fiber.Ctx) error {
	var req compareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "ids is required")
	}

	products, err := compare.Lookup(c.UserContext(), h.source, req.Categories, req.IDs)
	if err != nil {
		return err
	}
	sel := compare.NewSelection()
	var warnings []string
	for _, p := range products {
		if err := sel.Add(p); err != nil {
			warnings = append(warnings, compare.Message(err))
		}
	}
	return c.JSON(compareResponse{
		Breadcrumb: sel.Breadcrumb(),
		Products:   sel.Products(),
		Table:      sel.Table(),
		Warnings:   warnings,
	})
}

func parseQuery(c *fiber.Ctx) (listing.Query, error) {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return listing.Query{}, fiber.NewError(fiber.StatusBadRequest, "invalid query string")
	}
	q, err := listing.QueryFromValues(values)
	if err != nil {
		return listing.Query{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return q, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	var appErr *apperr.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.As(err, &appErr):
		message = appErr.Message
		switch appErr.Kind {
		case apperr.Validation:
			code = fiber.StatusBadRequest
		case apperr.Unauthorized:
			code = fiber.StatusUnauthorized
		case apperr.Transport:
			code = fiber.StatusBadGateway
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
