package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportRegistry(t *testing.T) {
	transport, err := NewTransport("console", nil)
	require.NoError(t, err)
	require.NotNil(t, transport)
	defer transport.Close()

	_, err = NewTransport("no-such-transport", nil)
	assert.Error(t, err)
}

func TestConsoleTransportUpload(t *testing.T) {
	transport := NewConsoleTransport()
	defer transport.Close()

	batch := &Batch{Namespace: "Test/Namespace", Data: []Datum{{MetricName: "X", Unit: UnitNone}}}
	select {
	case err := <-transport.Upload(context.Background(), batch):
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("console upload did not complete")
	}
}

func TestHTTPTransportUpload(t *testing.T) {
	received := make(chan Batch, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b Batch
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- b
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(HTTPTransportConfig{Endpoint: server.URL})
	require.NoError(t, err)
	defer transport.Close()

	when := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)
	batch := &Batch{
		Namespace: "Client/Metrics",
		Data: []Datum{{
			MetricName: "ApiCallDuration",
			Dimensions: []Dimension{{Name: "ServiceId", Value: "S3"}},
			Unit:       UnitMilliseconds,
			Timestamp:  when,
			Stats:      &StatisticSet{Minimum: 1, Maximum: 4, Sum: 14, SampleCount: 5},
		}},
	}

	select {
	case err := <-transport.Upload(context.Background(), batch):
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not complete")
	}

	got := <-received
	assert.Equal(t, "Client/Metrics", got.Namespace)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "ApiCallDuration", got.Data[0].MetricName)
	require.NotNil(t, got.Data[0].Stats)
	assert.Equal(t, float64(5), got.Data[0].Stats.SampleCount)
}

func TestHTTPTransportRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(HTTPTransportConfig{Endpoint: server.URL})
	require.NoError(t, err)
	defer transport.Close()

	select {
	case err := <-transport.Upload(context.Background(), &Batch{Namespace: "N"}):
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not complete")
	}
}

func TestHTTPTransportRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPTransport(HTTPTransportConfig{})
	assert.Error(t, err)
}
