package dto

type ItemFilters struct {
	TenantID    string
	SearchQuery string
	IsService   *bool
	Page        int
	PageSize    int
}

type MovementFilters struct {
	TenantID string
	ItemID   string
	Page     int
	PageSize int
}
