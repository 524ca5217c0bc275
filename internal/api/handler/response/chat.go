package response

type ChatResponse struct {
	Response string `json:"response"`
}

type WelcomeResponse struct {
	Message string `json:"message"`
}

type ColumnsResponse struct {
	Columns []string `json:"columns"`
}

type CorrectSQLResponse struct {
	SQL string `json:"sql"`
}
