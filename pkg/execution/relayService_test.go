package execution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Layr-Labs/multisig-go/pkg/httpClient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRelayClient(t *testing.T, url string) *RelayServiceClient {
	l, _ := zap.NewDevelopment()
	transport := httpClient.NewClient(&httpClient.Config{Timeout: time.Second, RetryMax: 3, Component: "relay"}, l)
	return NewRelayServiceClient(&RelayServiceConfig{BaseURL: url + "/", Client: transport}, l)
}

func TestRelayServiceClient_Estimate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/safes/"+testSafe.Hex()+"/transactions/estimate/", r.URL.Path)
		var params EstimateParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, 2, params.Threshold)
		_, _ = w.Write([]byte(`{"safeTxGas":"1","dataGas":"2","operationalGas":"3","gasPrice":"4","lastUsedNonce":"5","gasToken":"0x0000000000000000000000000000000000000000"}`))
	}))
	defer srv.Close()

	estimate, err := newTestRelayClient(t, srv.URL).Estimate(context.Background(), testSafe, &EstimateParams{Threshold: 2})
	require.NoError(t, err)
	assert.Equal(t, "4", estimate.GasPrice)
	require.NotNil(t, estimate.LastUsedNonce)
	assert.Equal(t, "5", *estimate.LastUsedNonce)
}

func TestRelayServiceClient_ExecuteIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v1/safes/"+testSafe.Hex()+"/transactions/", r.URL.Path)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestRelayClient(t, srv.URL).Execute(context.Background(), testSafe, &ExecuteParams{})
	assert.ErrorIs(t, err, httpClient.ErrUnexpectedStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRelayServiceClient_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params ExecuteParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Len(t, params.Signatures, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"transactionHash":"0x1234"}`))
	}))
	defer srv.Close()

	execution, err := newTestRelayClient(t, srv.URL).Execute(context.Background(), testSafe, &ExecuteParams{
		Signatures: []ServiceSignature{{R: "1", S: "2", V: 27}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0x1234", execution.TransactionHash)
}
