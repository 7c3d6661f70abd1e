package forwarder_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attendance-sync/internal/forwarder"
	"attendance-sync/internal/models"
)

func testDevice() models.Device {
	return models.Device{
		DeviceID: "dev-1",
		Address:  "10.0.0.10",
		TenantID: "tenant-1",
	}
}

func TestForwardPostsPayload(t *testing.T) {
	var received forwarder.Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	records := models.DailyRecords{
		"2024-01-01": {
			"42": {
				{Major: 5, Minor: 38, Time: "2024-01-01T08:00:00+05:45", EmployeeNo: "42"},
				{Major: 5, Minor: 38, Time: "2024-01-01T17:30:00+05:45", EmployeeNo: "42"},
			},
		},
	}

	f := forwarder.New(server.URL, 5*time.Second, zap.NewNop())
	require.NoError(t, f.Forward(context.Background(), testDevice(), records))

	assert.Equal(t, "tenant-1", received.TenantID)
	assert.Equal(t, "dev-1", received.DeviceID)
	require.Len(t, received.Attendance["2024-01-01"]["42"], 2)
	assert.Equal(t, "2024-01-01T08:00:00+05:45", received.Attendance["2024-01-01"]["42"][0].Time)
}

func TestForwardEmptyRecordsIsStillDelivered(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := forwarder.New(server.URL, 5*time.Second, zap.NewNop())
	require.NoError(t, f.Forward(context.Background(), testDevice(), models.DailyRecords{}))
	assert.Equal(t, 1, calls)
}

func TestForwardNon2xxIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	f := forwarder.New(server.URL, 5*time.Second, zap.NewNop())

	err := f.Forward(context.Background(), testDevice(), models.DailyRecords{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}
