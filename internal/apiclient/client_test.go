package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/models"
	"github.com/ashendes/restaurant-ordering/internal/patterns"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Options{BaseURL: server.URL, APIKey: "test-key", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "::", "ftp://x", "http://"} {
		_, err := New(Options{BaseURL: raw})
		assert.ErrorIs(t, err, models.ErrInvalidURL, raw)
	}
}

func TestFetchItemList_SendsHeadersAndDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathItemList, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get(HeaderAPIKey))
		assert.Equal(t, models.ActionGetItemList, r.Header.Get(HeaderAction))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"page":2,"count":100}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_code":200,"outcome_code":200,"response_message":"ok",
			"page":2,"count":100,"total_pages":3,"total_items":5,
			"cuisines":[{"cuisine_id":1,"cuisine_name":"Indian","cuisine_image_url":"i",
			"items":[{"id":"10","name":"Dal","image_url":"d","price":120,"rating":"4.4"}]}]}`))
	})

	resp, err := client.FetchItemList(context.Background(), 2, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalPages)
	require.Len(t, resp.Cuisines, 1)
	assert.Equal(t, models.FlexID("1"), resp.Cuisines[0].CuisineID)
	assert.Equal(t, "120", resp.Cuisines[0].Items[0].Price.String())
}

func TestPost_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantText string
	}{
		{name: "server message", status: http.StatusBadRequest, body: `{"response_message":"bad page"}`, wantErr: models.ErrServer, wantText: "bad page"},
		{name: "generic status", status: http.StatusBadGateway, body: `oops`, wantErr: models.ErrServer, wantText: "Server returned status code 502"},
		{name: "empty body", status: http.StatusOK, body: ``, wantErr: models.ErrInvalidResponse},
		{name: "bad json", status: http.StatusOK, body: `{"cuisines":`, wantErr: models.ErrDecodingFailed},
		{name: "malformed id", status: http.StatusOK, body: `{"cuisines":[{"cuisine_id":null}]}`, wantErr: models.ErrMalformedField},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			})

			_, err := client.FetchItemsByFilter(context.Background(), models.FilterRequest{CuisineType: []string{"Indian"}})
			require.Error(t, err)
			assert.ErrorIs(t, err, testCase.wantErr)
			if testCase.wantText != "" {
				se, ok := IsServerError(err)
				require.True(t, ok)
				assert.Equal(t, testCase.wantText, se.Message)
			}
		})
	}
}

func TestPost_RequestFailed(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := New(Options{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.FetchItemDetails(context.Background(), "1")
	assert.ErrorIs(t, err, models.ErrRequestFailed)
}

func TestMakePayment_BodyOrderAndTxn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathMakePayment, r.URL.Path)
		assert.Equal(t, models.ActionMakePayment, r.Header.Get(HeaderAction))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t,
			`{"total_amount":"105","total_items":1,"data":[{"cuisine_id":3,"item_id":7,"item_price":100,"item_quantity":1}]}`,
			string(body))
		_, _ = w.Write([]byte(`{"response_code":200,"outcome_code":200,"response_message":"done","txn_ref_no":"TXN123"}`))
	})

	resp, err := client.MakePayment(context.Background(), models.PaymentRequest{
		TotalAmount: "105",
		TotalItems:  1,
		Data:        []models.PaymentItem{{CuisineID: 3, ItemID: 7, ItemPrice: 100, ItemQuantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "TXN123", resp.TxnRefNo)
}

func TestMakePayment_MissingTxnIsInvalid(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":200,"outcome_code":200,"response_message":"done"}`))
	})

	_, err := client.MakePayment(context.Background(), models.PaymentRequest{TotalAmount: "1", TotalItems: 1})
	assert.ErrorIs(t, err, models.ErrInvalidResponse)
}

func TestPaymentCircuit_Opens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := New(Options{
		BaseURL: server.URL,
		Breaker: &patterns.BreakerSettings{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 2, FailureRatio: 0.5},
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = client.MakePayment(context.Background(), models.PaymentRequest{TotalAmount: "1", TotalItems: 1})
		assert.ErrorIs(t, err, models.ErrServer)
	}

	_, err = client.MakePayment(context.Background(), models.PaymentRequest{TotalAmount: "1", TotalItems: 1})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))

	status := client.CircuitStatus()
	payment := status["payment_circuit"].(map[string]interface{})
	assert.Equal(t, "open", payment["state"])
}

func TestItemDetailFailures_DoNotOpenCatalogCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == PathItemByID {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"response_message":"Item not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"response_code":200,"page":1,"count":1,"total_pages":1,"total_items":0,"cuisines":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := New(Options{BaseURL: server.URL})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = client.FetchItemDetails(context.Background(), fmt.Sprint(900+i))
		assert.Error(t, err)
	}

	resp, err := client.FetchItemList(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalPages)

	status := client.CircuitStatus()
	assert.Equal(t, "closed", status["catalog_circuit"].(map[string]interface{})["state"])
	assert.Equal(t, "open", status["item_details_circuit"].(map[string]interface{})["state"])
}
