// internal/workers/search/search-listings/models.go
package searchlistings

import (
	"fmt"

	"easyapply/internal/browser"
)

// Output describes one keyword's walk over the result pages.
type Output struct {
	Keyword string `json:"keyword"`
	Pages   int    `json:"pages"`
	Cards   int    `json:"cards"`
	Stopped bool   `json:"stopped"` // the visitor asked to stop
}

var (
	DatePostedButton = browser.XPath("//button[contains(text(), 'Date Posted')]")
	ShowResults      = browser.XPath("//button[contains(text(), 'Show')]")
	SearchBox        = browser.XPath("//input[@placeholder='Search jobs']")

	// JobCards matches one result card per listing.
	JobCards = browser.CSS(".job-card-container")
)

// DateOption is the date filter entry showing label.
func DateOption(label string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//span[contains(text(), '%s')]", label))
}

// PageButton is the pagination control for page n.
func PageButton(n int) browser.Selector {
	return browser.CSS(fmt.Sprintf("button[aria-label='Page %d']", n))
}
