package dto

type TenantStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}
