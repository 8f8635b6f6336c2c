package dto

// Paginacion envuelve listados con sus totales.
type Paginacion struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListResponse is the generic paginated envelope.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Paginacion Paginacion `json:"paginacion"`
}
