package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

func TestClientStatuses(t *testing.T) {
	t.Parallel()

	c := &ClientAPIController{basePath: "/crm/api"}
	req := httptest.NewRequest(http.MethodGet, "/crm/api/clients/statuses", nil)
	rec := httptest.NewRecorder()
	c.Statuses(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Statuses []client.ContactStatus `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, client.ContactStatuses(), body.Statuses)
	require.Contains(t, body.Statuses, client.StatusClosedWon)
}
