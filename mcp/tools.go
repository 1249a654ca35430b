package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lukman83/pricehub/internal/alert"
	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/business"
	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/compare"
	"github.com/lukman83/pricehub/internal/listing"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/nav"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Deps are the backends the tools read from. Business may be nil, in which
// case business_profile is not registered.
type Deps struct {
	Source   catalog.Source
	Business *business.Client
	PerPage  int
}

type tools struct {
	deps Deps
}

func registerTools(s *server.MCPServer, deps Deps) {
	t := &tools{deps: deps}

	listingArgs := []mcp.ToolOption{
		mcp.WithString("brand", mcp.Description("Comma separated brands, e.g. dell,hp")),
		mcp.WithString("processor", mcp.Description("Comma separated processor tokens, e.g. i7,ryzen-7,m2")),
		mcp.WithString("screen", mcp.Description("Comma separated screen sizes, e.g. 13,15.6")),
		mcp.WithString("price", mcp.Description("Price range: 500-1000, under-800, over-1500 or 2000+")),
		mcp.WithString("sort", mcp.Description("relevance (default), name, price-low, price-high")),
		mcp.WithNumber("page", mcp.Description("Page number (default: 1)")),
	}

	// list_products
	listTool := mcp.NewTool("list_products", append([]mcp.ToolOption{
		mcp.WithDescription("List products in a category with optional filters, sort and paging"),
		mcp.WithString("category",
			mcp.Description("Category: laptops, gaming, windows-laptops, macbooks, chromebooks, gaming-laptops, gaming-consoles, gaming-monitors, gaming-accessories, smartphones, televisions (default: laptops)"),
		),
	}, listingArgs...)...)
	s.AddTool(listTool, t.handleListProducts)

	// search_products
	searchTool := mcp.NewTool("search_products", append([]mcp.ToolOption{
		mcp.WithDescription("Search products by keyword with optional filters, sort and paging"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search keyword"),
		),
	}, listingArgs...)...)
	s.AddTool(searchTool, t.handleSearchProducts)

	// compare_products
	compareTool := mcp.NewTool("compare_products",
		mcp.WithDescription("Compare up to 3 products side by side by ID"),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description("Product IDs in display order"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("categories",
			mcp.Description("Categories to look the products up in (default: laptops, gaming)"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(compareTool, t.handleCompareProducts)

	// price_alert_preview
	alertTool := mcp.NewTool("price_alert_preview",
		mcp.WithDescription("Check a price alert before creating it: suggested target and validation messages"),
		mcp.WithString("product_id",
			mcp.Required(),
			mcp.Description("Product ID"),
		),
		mcp.WithNumber("target_price",
			mcp.Description("Target price (default: 90% of the current lowest price)"),
		),
		mcp.WithString("notification_method",
			mcp.Description("email (default), browser or both"),
		),
		mcp.WithString("email",
			mcp.Description("Email address for email notifications"),
		),
		mcp.WithArray("categories",
			mcp.Description("Categories to look the product up in (default: laptops, gaming)"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(alertTool, t.handlePriceAlertPreview)

	// get_menu
	menuTool := mcp.NewTool("get_menu",
		mcp.WithDescription("Get the storefront navigation menu with category slugs"),
	)
	s.AddTool(menuTool, t.handleGetMenu)

	if deps.Business != nil {
		// business_profile
		businessTool := mcp.NewTool("business_profile",
			mcp.WithDescription("Get a business profile with galleries, followers, reactions and reviews"),
			mcp.WithString("business_id",
				mcp.Required(),
				mcp.Description("Business ID"),
			),
		)
		s.AddTool(businessTool, t.handleBusinessProfile)
	}
}

func (t *tools) handleListProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v := listingValues(request)
	v.Set("category", request.GetString("category", listing.CategoryLaptops))
	return t.listing(ctx, v)
}

func (t *tools) handleSearchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	v := listingValues(request)
	v.Set("q", query)
	return t.listing(ctx, v)
}

func listingValues(request mcp.CallToolRequest) url.Values {
	v := url.Values{}
	for _, key := range []string{"brand", "processor", "screen", "price", "sort"} {
		if s := request.GetString(key, ""); s != "" {
			v.Set(key, s)
		}
	}
	v.Set("page", strconv.Itoa(request.GetInt("page", 1)))
	return v
}

func (t *tools) listing(ctx context.Context, v url.Values) (*mcp.CallToolResult, error) {
	q, err := listing.QueryFromValues(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ctrl := listing.NewController(t.deps.Source, t.deps.PerPage)
	if err := ctrl.Open(ctx, q); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing error: %s", apperr.UserMessage(err))), nil
	}
	return jsonResult(ctrl.View())
}

func (t *tools) handleCompareProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := request.GetStringSlice("ids", nil)
	if len(ids) == 0 {
		return mcp.NewToolResultError("ids is required"), nil
	}
	categories := request.GetStringSlice("categories", nil)

	products, err := compare.Lookup(ctx, t.deps.Source, categories, ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compare error: %s", apperr.UserMessage(err))), nil
	}
	sel := compare.NewSelection()
	var warnings []string
	for _, p := range products {
		if err := sel.Add(p); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s", p.DisplayName(), compare.Message(err)))
		}
	}
	return jsonResult(map[string]any{
		"breadcrumb": sel.Breadcrumb(),
		"table":      sel.Table(),
		"warnings":   warnings,
	})
}

func (t *tools) handlePriceAlertPreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("product_id", "")
	if id == "" {
		return mcp.NewToolResultError("product_id is required"), nil
	}
	categories := request.GetStringSlice("categories", nil)
	products, err := compare.Lookup(ctx, t.deps.Source, categories, []string{id})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup error: %s", apperr.UserMessage(err))), nil
	}
	p := products[0]
	current, _ := p.LowestPrice()

	form := alert.Form{
		ProductID:          p.ID,
		ProductName:        p.DisplayName(),
		CurrentPrice:       current,
		TargetPrice:        request.GetFloat("target_price", alert.Suggest(current)),
		NotificationMethod: request.GetString("notification_method", models.NotifyEmail),
		EmailAddress:       request.GetString("email", ""),
	}
	return jsonResult(map[string]any{
		"form":       form,
		"can_submit": form.CanSubmit(),
		"errors":     form.Validate(),
	})
}

func (t *tools) handleGetMenu(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(nav.DefaultMenu())
}

func (t *tools) handleBusinessProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("business_id", "")
	if id == "" {
		return mcp.NewToolResultError("business_id is required"), nil
	}
	profile := business.NewProfile(t.deps.Business, "")
	if err := profile.Load(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("business error: %s", apperr.UserMessage(err))), nil
	}
	return jsonResult(profile.View())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}
