package models

// Query parameters of the report endpoints.

type IndicesRequest struct {
	Top int `query:"top" json:"top" validate:"gte=0,lte=1000"`
}

type IndexRequest struct {
	Name string `param:"name" json:"name" validate:"required"`
	Top  int    `query:"top" json:"top" validate:"gte=0,lte=1000"`
	Side string `query:"side" json:"side" default:"all" validate:"oneof=all leaders laggards"`
}
