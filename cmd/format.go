package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/lukman83/pricehub/internal/business"
	"github.com/lukman83/pricehub/internal/compare"
	"github.com/lukman83/pricehub/internal/listing"
	"github.com/lukman83/pricehub/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatPrice formats a price as "KSh 1,234.50".
func formatPrice(v float64) string {
	currency := "KSh"
	if cfg != nil && cfg.Currency != "" {
		currency = cfg.Currency
	}
	return printer.Sprintf("%s %.2f", currency, v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListing prints one listing page in a card layout.
func printListing(w io.Writer, view listing.View) {
	heading := view.Title
	if view.Query != "" {
		heading = fmt.Sprintf("Results for %q", view.Query)
	}
	fmt.Fprintf(w, "%s  (%d products", heading, view.Page.TotalItems)
	if view.ActiveFilters > 0 {
		fmt.Fprintf(w, ", %d filters", view.ActiveFilters)
	}
	fmt.Fprintf(w, ", sorted by %s)\n\n", view.Sort)

	if len(view.Page.Items) == 0 {
		fmt.Fprintln(w, "No products match your filters.")
		return
	}

	offset := (view.Page.Number - 1) * view.Page.PerPage
	for i, p := range view.Page.Items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, " %d. %s  [%s]\n", offset+i+1, truncate(p.DisplayName(), 70), p.ID)

		priceLine := "    Price: n/a"
		if o, ok := p.LowestOffer(); ok {
			priceLine = "    From " + formatPrice(o.Price) + " at " + o.Retailer
			if n := len(p.Offers); n > 1 {
				priceLine += fmt.Sprintf("  (%d offers)", n)
			}
			if o.URL != "" {
				priceLine += "\n    " + cleanURL(o.URL)
			}
		}
		fmt.Fprintln(w, priceLine)

		var specs []string
		for _, key := range []string{"processor", "display", "ram", "storage"} {
			if v := p.SpecString(key); v != "" {
				specs = append(specs, v)
			}
		}
		if len(specs) > 0 {
			fmt.Fprintf(w, "    %s\n", truncate(strings.Join(specs, " | "), 90))
		}
	}

	fmt.Fprintf(w, "\nPage %d of %d", view.Page.Number, view.Page.TotalPages)
	if view.Page.HasNext() {
		fmt.Fprintf(w, "  (next: --page %d)", view.Page.Number+1)
	}
	fmt.Fprintln(w)
}

func printFacets(w io.Writer, f listing.Facets) {
	if len(f.Brands) > 0 {
		fmt.Fprintf(w, "Brands:       %s\n", strings.Join(f.Brands, ", "))
	}
	if len(f.Processors) > 0 {
		fmt.Fprintf(w, "Processors:   %s\n", strings.Join(f.Processors, ", "))
	}
	if len(f.ScreenSizes) > 0 {
		fmt.Fprintf(w, "Screen sizes: %s\n", strings.Join(f.ScreenSizes, ", "))
	}
}

// printCompareTable prints the comparison side by side.
func printCompareTable(w io.Writer, breadcrumb string, table compare.Table) error {
	fmt.Fprintf(w, "%s\n\n", breadcrumb)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{""}
	for _, name := range table.Products {
		header = append(header, truncate(name, 32))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range table.Rows {
		cells := append([]string{row.Label}, row.Values...)
		for i := range cells {
			cells[i] = truncate(cells[i], 32)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func printBusiness(w io.Writer, view business.View) {
	b := view.Business
	if b == nil {
		return
	}
	name := b.Name
	if b.Verified {
		name += " [Verified]"
	}
	fmt.Fprintln(w, name)
	if b.Category != "" || b.Location != "" {
		fmt.Fprintf(w, "  %s\n", strings.Trim(b.Category+" · "+b.Location, " ·"))
	}
	if b.Description != "" {
		fmt.Fprintf(w, "  %s\n", b.Description)
	}
	following := ""
	if view.Following {
		following = " (following)"
	}
	fmt.Fprintf(w, "  %d followers%s  |  %.1f★ from %d reviews\n", view.Followers, following, view.Stats.Average, view.Stats.Total)

	for _, g := range b.Galleries {
		r := view.Reactions[g.Name]
		liked := ""
		if r.Liked {
			liked = ", liked"
		}
		fmt.Fprintf(w, "\n  Gallery %q: %d images, %d likes%s\n", g.Name, len(g.Images), r.Likes, liked)
		if g.Description != "" {
			fmt.Fprintf(w, "    %s\n", g.Description)
		}
	}

	if len(view.Reviews) > 0 {
		fmt.Fprintln(w, "\n  Reviews:")
	}
	for _, r := range view.Reviews {
		author := r.AuthorName
		if author == "" {
			author = "Anonymous"
		}
		fmt.Fprintf(w, "   %s  %d/5 by %s  (%d found helpful)  [%s]\n", r.CreatedAt.Format("2006-01-02"), r.Rating, author, r.HelpfulCount, r.ID)
		if r.Comment != "" {
			fmt.Fprintf(w, "     %s\n", truncate(r.Comment, 100))
		}
	}
}

func printAlerts(w io.Writer, alerts []models.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No price alerts.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tTARGET\tNOTIFY\tACTIVE\tNAME")
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", a.ID, a.ProductID, formatPrice(a.TargetPrice), a.NotificationMethod, a.IsActive, a.AlertName)
	}
	tw.Flush()
}

func printConversations(w io.Writer, convs []models.Conversation) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations.")
		return
	}
	for _, c := range convs {
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", c.UnreadCount)
		}
		blocked := ""
		if c.OtherParty.IsBlocked {
			blocked = " [blocked]"
		}
		fmt.Fprintf(w, " %s  %s%s%s\n", c.ID, c.OtherParty.Name, unread, blocked)
		if c.LastMessagePreview != "" {
			fmt.Fprintf(w, "    %s\n", truncate(c.LastMessagePreview, 80))
		}
	}
}

func printMessage(w io.Writer, m models.Message) {
	who := "them"
	if m.Sender == models.SenderMe {
		who = "me"
	}
	status := ""
	if m.Sender == models.SenderMe && m.Status != "" {
		status = "  (" + m.Status + ")"
	}
	fmt.Fprintf(w, "[%s] %-4s: %s%s\n", m.CreatedAt.Local().Format("Jan 2 15:04"), who, m.Content, status)
}

// cleanURL strips tracking query params and returns just the page URL.
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
