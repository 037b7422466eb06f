package export

import (
	"context"
	"fmt"
	"strings"
)

// DefaultRegions returns the marketing site sections in document order.
func DefaultRegions() []RegionRef {
	return []RegionRef{
		{ID: "overview", Title: "What is UCMS?"},
		{ID: "capabilities", Title: "Core Features Overview"},
		{ID: "pipeline", Title: "AI-powered Invoice Processing"},
		{ID: "automation", Title: "Workflow with Smart Automation"},
		{ID: "deployment", Title: "Deployment Options"},
		{ID: "outcomes", Title: "Benefits at a Glance"},
	}
}

// Locator resolves the exportable regions present on a page.
type Locator struct {
	Regions []RegionRef
}

// NewLocator creates a locator for the declared regions.
func NewLocator(regions []RegionRef) *Locator {
	return &Locator{Regions: append([]RegionRef(nil), regions...)}
}

// Locate returns the declared regions present on the page, in declared order.
func (l *Locator) Locate(ctx context.Context, page Page) ([]RegionRef, error) {
	if page == nil {
		return nil, NewError(KindInternal, "page is nil", nil)
	}
	if l == nil || len(l.Regions) == 0 {
		return nil, ErrNoExportableContent()
	}

	seen := make(map[string]bool, len(l.Regions))
	found := make([]RegionRef, 0, len(l.Regions))
	for _, region := range l.Regions {
		id := strings.TrimSpace(region.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		present, err := page.RegionPresent(ctx, id)
		if err != nil {
			return nil, NewError(KindInternal, fmt.Sprintf("locate region %q", id), err)
		}
		if !present {
			continue
		}
		if region.Title == "" {
			region.Title = id
		}
		region.ID = id
		found = append(found, region)
	}

	if len(found) == 0 {
		return nil, ErrNoExportableContent()
	}
	return found, nil
}

// ParseRegions parses "id" or "id=Title" entries.
func ParseRegions(values []string) []RegionRef {
	regions := make([]RegionRef, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		id, title, _ := strings.Cut(value, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		regions = append(regions, RegionRef{ID: id, Title: strings.TrimSpace(title)})
	}
	return regions
}
