package appliance

import "context"

// KnowledgeBaseRepository exposes the cached knowledge base.
type KnowledgeBaseRepository interface {
	Problems(ctx context.Context) ([]Problem, error)
	DangerousKeywords(ctx context.Context) ([]string, error)
	TechnicianFee(ctx context.Context) (float64, error)
	ClearCache()
}

// TechnicianRepository exposes the cached technician roster.
type TechnicianRepository interface {
	All(ctx context.Context) ([]Technician, error)
	ByID(ctx context.Context, id string) (Technician, bool, error)
	AvailableFor(ctx context.Context, applianceType string) ([]Technician, error)
	ClearCache()
}

// CommonIssuesRepository maps appliance types to well-known issue titles.
type CommonIssuesRepository interface {
	ForType(ctx context.Context, applianceType string) ([]string, error)
	ClearCache()
}

// BookingRepository persists confirmed bookings.
type BookingRepository interface {
	Save(ctx context.Context, booking Booking) error
	All(ctx context.Context) ([]Booking, error)
	ByID(ctx context.Context, id string) (Booking, bool, error)
}

// CatalogPart is a part image discovered in the parts catalog.
type CatalogPart struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Filename  string  `json:"filename"`
	ImagePath string  `json:"image_path"`
}

// AsPart converts a catalog entry to an orderable part. Catalog images carry
// no part number, so the name stands in for it.
func (c CatalogPart) AsPart() Part {
	return Part{Name: c.Name, PartNumber: c.Name, Price: c.Price}
}

// PartsCatalog lists image backed parts for special issues.
type PartsCatalog interface {
	IsSpecialIssue(issue string) bool
	PartsForIssue(issue string) ([]CatalogPart, error)
}
