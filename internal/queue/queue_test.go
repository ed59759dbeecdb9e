package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionMessageRoundTrip(t *testing.T) {
	msg := IngestionMessage{
		DocumentID:       uuid.New(),
		FilePath:         "objects/abc/original.pdf",
		OriginalFilename: "report.pdf",
		MimeType:         "application/pdf",
		CorrelationID:    "corr-1",
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var got IngestionMessage
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, msg, got)
}

func TestQueryMessageRoundTrip(t *testing.T) {
	msg := QueryMessage{
		QueryID:        uuid.New(),
		QueryText:      "what is the refund window?",
		DocumentFilter: []uuid.UUID{uuid.New(), uuid.New()},
		TopK:           10,
		RerankTop:      5,
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var got QueryMessage
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, msg, got)
}
