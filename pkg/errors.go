package pkg

import "errors"

var (
	ErrSchemaIntrospection = errors.New("error fetching column names")
	ErrSampleFetch         = errors.New("error fetching sample data")
	ErrUpstreamService     = errors.New("upstream service error")
	ErrInvalidInput        = errors.New("invalid input")
)
