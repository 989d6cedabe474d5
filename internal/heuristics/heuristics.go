// Package heuristics holds the static rule tables driving search-input
// discovery and product extraction: ordered selector cascades and keyword
// vocabularies. Everything here is data; control flow lives in the packages
// that consume it. These tables are the primary tuning surface for accuracy
// on new site layouts.
package heuristics

// By identifies the query language of a selector expression.
type By string

const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
)

// Query addresses page elements either by CSS selector or XPath expression.
type Query struct {
	By   By
	Expr string
}

// CSS wraps a CSS selector into a Query.
func CSS(expr string) Query { return Query{By: ByCSS, Expr: expr} }

// XPath wraps an XPath expression into a Query.
func XPath(expr string) Query { return Query{By: ByXPath, Expr: expr} }

// Family is an ordered list of queries that all look for the same signal.
// Within a family, queries are tried in listed order; families themselves are
// ordered most-specific first so a generic text field never shadows a field
// that is explicitly named as a search box.
type Family struct {
	Name    string
	Queries []Query
}

func css(exprs ...string) []Query {
	qs := make([]Query, len(exprs))
	for i, e := range exprs {
		qs[i] = CSS(e)
	}
	return qs
}

func xpath(exprs ...string) []Query {
	qs := make([]Query, len(exprs))
	for i, e := range exprs {
		qs[i] = XPath(e)
	}
	return qs
}

// SearchInputFamilies is the full locator cascade for finding a search input
// on an unknown page. The first visible and enabled match wins.
var SearchInputFamilies = []Family{
	{Name: "name", Queries: css(
		`input[name="q"]`,
		`input[name="query"]`,
		`input[name="search"]`,
		`input[name="keyword"]`,
		`input[name="keywords"]`,
		`input[name="s"]`,
		`input[name="search_query"]`,
		`input[name="searchTerm"]`,
		`input[name="searchQuery"]`,
		`input[name="searchInput"]`,
		`input[name="search-field"]`,
		`input[name="search_field"]`,
		`input[name="field-keywords"]`,
		`input[name="k"]`,
		`input[name="find"]`,
		`input[name="term"]`,
		`input[name="search-query"]`,
		`input[name="search-term"]`,
		`input[name="siteSearch"]`,
		`input[name="site_search"]`,
	)},
	{Name: "id", Queries: css(
		`input#search`,
		`input#searchbox`,
		`input#search-box`,
		`input#search_box`,
		`input#searchBar`,
		`input#search-bar`,
		`input#searchInput`,
		`input#search-input`,
		`input#search_input`,
		`input#searchField`,
		`input#search-field`,
		`input#query`,
		`input#q`,
		`input#s`,
		`input#keyword`,
		`input#twotabsearchtextbox`,
		`input#gh-ac`,
		`input#global-search`,
		`input#main-search`,
		`input#header-search`,
		`input#top-search`,
	)},
	{Name: "class", Queries: css(
		`input.search`,
		`input.searchbox`,
		`input.search-box`,
		`input.search-bar`,
		`input.search-input`,
		`input.searchInput`,
		`input.search-field`,
		`input.search-query`,
		`input.site-search`,
		`input.global-search`,
		`input.header-search`,
		`input.nav-search-input`,
		`input.autocomplete-input`,
		`input.react-autosuggest__input`,
	)},
	{Name: "placeholder", Queries: css(
		`input[placeholder*="search" i]`,
		`input[placeholder*="find" i]`,
		`input[placeholder*="looking for" i]`,
		`input[placeholder*="what are you" i]`,
		`input[placeholder*="product" i]`,
		`input[placeholder*="item" i]`,
		`input[placeholder*="brand" i]`,
		`input[placeholder*="keyword" i]`,
		`input[placeholder*="query" i]`,
	)},
	{Name: "aria", Queries: css(
		`input[aria-label*="search" i]`,
		`input[aria-label*="find" i]`,
		`input[role="searchbox"]`,
		`[role="searchbox"]`,
		`[role="search"] input`,
	)},
	{Name: "title", Queries: css(
		`input[title*="search" i]`,
		`input[title*="find" i]`,
		`input[title*="query" i]`,
	)},
	{Name: "data", Queries: css(
		`input[data-search]`,
		`input[data-searchbox]`,
		`input[data-type="search"]`,
		`input[data-role="search"]`,
		`input[data-testid*="search" i]`,
		`input[data-test*="search" i]`,
		`input[data-cy*="search" i]`,
	)},
	{Name: "form", Queries: css(
		`form[action*="search"] input[type="text"]`,
		`form[action*="search"] input[type="search"]`,
		`form[action*="/search"] input`,
		`form[action*="query"] input`,
		`form[class*="search" i] input`,
		`form[id*="search" i] input`,
		`form[role="search"] input`,
	)},
	{Name: "container", Queries: css(
		`div[class*="search" i] input`,
		`div[id*="search" i] input`,
		`div[role="search"] input`,
		`header input[type="text"]`,
		`header input[type="search"]`,
		`nav input[type="text"]`,
		`nav input[type="search"]`,
		`.navbar input`,
		`.search-container input`,
		`.search-wrapper input`,
		`.search-form input`,
	)},
	{Name: "type", Queries: css(
		`input[type="search"]`,
		`input[type="text"]`,
		`input[type="tel"]`,
		`input[type="email"]`,
		`input[type="url"]`,
	)},
	{Name: "xpath", Queries: xpath(
		`//input[contains(@placeholder, 'Search')]`,
		`//input[contains(@placeholder, 'search')]`,
		`//input[contains(@aria-label, 'Search')]`,
		`//input[contains(@title, 'Search')]`,
		`//input[@name='q']`,
		`//input[contains(@class, 'search')]`,
		`//input[contains(@id, 'search')]`,
		`//input[@type='search']`,
		`//form[contains(@action, 'search')]//input[@type='text']`,
		`//form[@role='search']//input`,
		`//*[@role='searchbox']`,
		`//header//input[@type='text']`,
		`//nav//input[@type='text']`,
	)},
}

// SearchTriggers are elements that may reveal a hidden search input when
// clicked (icon-only search, hamburger menus). At most the first three
// matches per query are tried.
var SearchTriggers = css(
	`button[class*="search" i]`,
	`button[aria-label*="search" i]`,
	`button[title*="search" i]`,
	`a[class*="search" i]`,
	`a[aria-label*="search" i]`,
	`div[class*="search" i][role="button"]`,
	`span[class*="search" i]`,
	`i[class*="search" i]`,
	`[data-testid*="search" i]`,
	`.fa-search`,
	`.icon-search`,
	`.search-icon`,
	`svg[class*="search" i]`,
	`button[class*="menu" i]`,
	`button[class*="hamburger" i]`,
	`button[aria-label*="menu" i]`,
)

// RevealedInputs is what a trigger click is expected to expose.
var RevealedInputs = css(
	`input[type="search"]`,
	`input[type="text"]`,
)

// SubmitControls locate the control that fires the typed search. Falling back
// to a synthetic Enter key press is the caller's job.
var SubmitControls = css(
	`button[type="submit"]`,
	`input[type="submit"]`,
	`button[aria-label*="search" i]`,
	`button[title*="search" i]`,
	`button[class*="search" i]`,
	`button#nav-search-submit-button`,
	`form[action*="search"] button[type="submit"]`,
	`form[role="search"] button[type="submit"]`,
)

// LoadMoreControls trigger lazy listings to materialize during settling.
var LoadMoreControls = css(
	`button[class*="load" i]`,
	`button[id*="load" i]`,
	`button[data-testid*="load" i]`,
	`button[aria-label*="load" i]`,
	`button[class*="more" i]`,
	`a[class*="load" i]`,
	`div[class*="load-more" i]`,
	`[data-action*="loadMore" i]`,
)

// PopupCloseControls dismiss modals and overlays that obscure content.
var PopupCloseControls = css(
	`button[aria-label*="close" i]`,
	`button[class*="close" i]`,
	`button[class*="dismiss" i]`,
	`[role="dialog"] button`,
	`.close-button`,
	`.modal-close`,
	`.overlay-close`,
	`[data-testid*="close" i]`,
	`[data-action*="close" i]`,
	`[aria-label*="dismiss" i]`,
)
