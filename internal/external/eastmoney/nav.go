package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundscope/internal/contracts"
)

const navPageSize = 49

// var apidata={ content:"<table>...</table>",records:1234,pages:26,curpage:1};
var apidataRe = regexp.MustCompile(`(?s)content:"(.*?)",\s*records:\s*(\d+),\s*pages:\s*(\d+)`)

var navDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// navPage one page of the lsjz history table
type navPage struct {
	Points []contracts.NavPoint
	Pages  int
}

// GetNavSeries fetches up to navPages pages of unit-NAV history, oldest first
func (c *Client) GetNavSeries(ctx context.Context, code string) ([]contracts.NavPoint, error) {
	var all []contracts.NavPoint

	for page := 1; page <= c.navPages; page++ {
		params := url.Values{}
		params.Set("type", "lsjz")
		params.Set("code", code)
		params.Set("page", strconv.Itoa(page))
		params.Set("per", strconv.Itoa(navPageSize))

		body, err := c.fetch(ctx, c.fundBaseURL, "/f10/F10DataApi.aspx", params)
		if err != nil {
			return nil, fmt.Errorf("nav %s page %d: %w", code, page, err)
		}

		p, err := parseNavPage(string(body))
		if err != nil {
			return nil, fmt.Errorf("nav %s page %d: %w", code, page, err)
		}
		all = append(all, p.Points...)

		if page >= p.Pages || len(p.Points) == 0 {
			break
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("nav %s: %w", code, contracts.ErrNotFound)
	}

	c.logger.WithFields(map[string]interface{}{
		"fund_code": code,
		"count":     len(all),
	}).Debug("Fetched NAV history")

	return contracts.NormalizeNav(all), nil
}

// parseNavPage extracts the HTML table from the apidata wrapper and reads
// date (col 0) and unit NAV (col 1) from each row
func parseNavPage(body string) (navPage, error) {
	m := apidataRe.FindStringSubmatch(body)
	if m == nil {
		return navPage{}, fmt.Errorf("unexpected lsjz payload")
	}
	pages, _ := strconv.Atoi(m[3])

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(m[1]))
	if err != nil {
		return navPage{}, fmt.Errorf("parse lsjz table: %w", err)
	}

	var points []contracts.NavPoint
	doc.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !navDateRe.MatchString(dateText) {
			return
		}
		date, err := time.Parse("2006-01-02", dateText)
		if err != nil {
			return
		}

		nav, err := strconv.ParseFloat(strings.TrimSpace(cells.Eq(1).Text()), 64)
		if err != nil || nav <= 0 {
			return
		}

		points = append(points, contracts.NavPoint{Date: date, NAV: nav})
	})

	return navPage{Points: points, Pages: pages}, nil
}
