package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, xlsxContentType, contentTypeFor("exports/p1/acme.com_TX_authority_report.xlsx"))
	assert.Equal(t, "application/json", contentTypeFor("a.json"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("noext"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "http://minio:9000/reports/exports/p1/a.xlsx", publicURL(false, "minio:9000", "reports", "exports/p1/a.xlsx"))
	assert.Equal(t, "https://s3.local/reports/k", publicURL(true, "s3.local", "reports", "k"))
}
