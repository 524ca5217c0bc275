package request

type ChatRequest struct {
	Query string `json:"query" validate:"required,notblank"`
}

type CorrectSQLRequest struct {
	SQL string `json:"sql" validate:"required,notblank"`
}
