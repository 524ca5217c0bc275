package pkg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrettyPrint(&buf, map[string]string{"response": "No data found for the given query."}))
	assert.Equal(t, "{\n  \"response\": \"No data found for the given query.\"\n}\n", buf.String())

	assert.Error(t, PrettyPrint(&buf, make(chan int)))
}
