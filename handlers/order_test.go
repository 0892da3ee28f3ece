//go:build integration

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"veshop-backend/models"
	"veshop-backend/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, handler http.HandlerFunc, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestIntegration_CreateOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userID := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	_, itemID := testutil.CreateTestProduct(t, db, "Tai nghe thử nghiệm", 250000, 10)

	rec := doJSON(t, CreateOrder(db, nil), http.MethodPost, "/api/orders", userID, models.CreateOrderRequest{
		Address: "1 Đường Lê Lợi, Quận 1",
		Items: []models.CreateOrderItemRequest{
			{ProductItemID: itemID, Quantity: 3},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusOrdered, resp.Data.Status)
	assert.Equal(t, models.PaymentPending, resp.Data.StatusPayment)
	assert.Equal(t, 750000.0, resp.Data.Total, "total comes from catalog prices")
	require.Len(t, resp.Data.Items, 1)

	var stock int
	require.NoError(t, db.QueryRow("SELECT quantity FROM product_items WHERE id = $1", itemID).Scan(&stock))
	assert.Equal(t, 7, stock)
}

func TestIntegration_CreateOrder_InsufficientStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userID := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	_, itemID := testutil.CreateTestProduct(t, db, "Sạc dự phòng", 590000, 2)

	rec := doJSON(t, CreateOrder(db, nil), http.MethodPost, "/api/orders", userID, models.CreateOrderRequest{
		Address: "1 Đường Lê Lợi, Quận 1",
		Items: []models.CreateOrderItemRequest{
			{ProductItemID: itemID, Quantity: 5},
		},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Stock must be untouched after the rollback.
	var stock int
	require.NoError(t, db.QueryRow("SELECT quantity FROM product_items WHERE id = $1", itemID).Scan(&stock))
	assert.Equal(t, 2, stock)
}

func TestIntegration_OrderTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userID := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)

	ship := func(id string) *httptest.ResponseRecorder {
		return doJSON(t, TransitionOrder(db, nil, nil, "/api/orders/shipper/", models.StatusShipping),
			http.MethodPatch, "/api/orders/shipper/"+id, "", nil)
	}
	deliver := func(id string) *httptest.ResponseRecorder {
		return doJSON(t, TransitionOrder(db, nil, nil, "/api/orders/delivered/", models.StatusDelivered),
			http.MethodPatch, "/api/orders/delivered/"+id, "", nil)
	}
	cancel := func(id string) *httptest.ResponseRecorder {
		return doJSON(t, TransitionOrder(db, nil, nil, "/api/orders/cancel/", models.StatusCancelled),
			http.MethodPatch, "/api/orders/cancel/"+id, "", nil)
	}

	t.Run("placed to shipping to delivered", func(t *testing.T) {
		orderID := testutil.CreateTestOrder(t, db, userID, string(models.StatusOrdered))

		require.Equal(t, http.StatusOK, ship(orderID).Code)

		var status string
		require.NoError(t, db.QueryRow("SELECT status FROM orders WHERE id = $1", orderID).Scan(&status))
		assert.Equal(t, string(models.StatusShipping), status)

		require.Equal(t, http.StatusOK, deliver(orderID).Code)

		// Delivery marks the order paid.
		var payment string
		require.NoError(t, db.QueryRow("SELECT status, status_payment FROM orders WHERE id = $1", orderID).Scan(&status, &payment))
		assert.Equal(t, string(models.StatusDelivered), status)
		assert.Equal(t, string(models.PaymentPaid), payment)
	})

	t.Run("shipping cannot be cancelled", func(t *testing.T) {
		orderID := testutil.CreateTestOrder(t, db, userID, string(models.StatusShipping))
		assert.Equal(t, http.StatusBadRequest, cancel(orderID).Code)
	})

	t.Run("terminal states reject everything", func(t *testing.T) {
		delivered := testutil.CreateTestOrder(t, db, userID, string(models.StatusDelivered))
		cancelled := testutil.CreateTestOrder(t, db, userID, string(models.StatusCancelled))

		for _, fn := range []func(string) *httptest.ResponseRecorder{ship, deliver, cancel} {
			assert.Equal(t, http.StatusBadRequest, fn(delivered).Code)
			assert.Equal(t, http.StatusBadRequest, fn(cancelled).Code)
		}
	})

	t.Run("placed can be delivered directly", func(t *testing.T) {
		orderID := testutil.CreateTestOrder(t, db, userID, string(models.StatusOrdered))
		require.Equal(t, http.StatusOK, deliver(orderID).Code)
	})

	t.Run("placed can be cancelled", func(t *testing.T) {
		orderID := testutil.CreateTestOrder(t, db, userID, string(models.StatusOrdered))
		require.Equal(t, http.StatusOK, cancel(orderID).Code)

		// Cancellation does not touch payment.
		var payment string
		require.NoError(t, db.QueryRow("SELECT status_payment FROM orders WHERE id = $1", orderID).Scan(&payment))
		assert.Equal(t, string(models.PaymentPending), payment)
	})

	t.Run("unknown order", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, ship("00000000-0000-0000-0000-000000000000").Code)
	})
}

func TestIntegration_UpdatePayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userID := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	orderID := testutil.CreateTestOrder(t, db, userID, string(models.StatusOrdered))

	rec := doJSON(t, UpdatePayment(db), http.MethodPatch, "/api/orders/payment/"+orderID, "",
		models.UpdatePaymentRequest{StatusPayment: models.PaymentPaid})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payment, status string
	require.NoError(t, db.QueryRow("SELECT status_payment, status FROM orders WHERE id = $1", orderID).Scan(&payment, &status))
	assert.Equal(t, string(models.PaymentPaid), payment)
	assert.Equal(t, string(models.StatusOrdered), status, "payment update leaves the order status alone")

	rec = doJSON(t, UpdatePayment(db), http.MethodPatch, "/api/orders/payment/"+orderID, "",
		models.UpdatePaymentRequest{StatusPayment: "refunded"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntegration_UpdatePayment_DeliveredIsLocked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userID := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	orderID := testutil.CreateTestOrder(t, db, userID, string(models.StatusDelivered))
	_, err := db.Exec("UPDATE orders SET status_payment = $1 WHERE id = $2", models.PaymentPaid, orderID)
	require.NoError(t, err)

	// Delivery forces paid; the manual path must not reopen it.
	rec := doJSON(t, UpdatePayment(db), http.MethodPatch, "/api/orders/payment/"+orderID, "",
		models.UpdatePaymentRequest{StatusPayment: models.PaymentPending})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Đơn hàng đã giao")

	var payment string
	require.NoError(t, db.QueryRow("SELECT status_payment FROM orders WHERE id = $1", orderID).Scan(&payment))
	assert.Equal(t, string(models.PaymentPaid), payment)
}

func TestIntegration_ListOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	alice := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	bob := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	admin := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleAdmin)

	testutil.CreateTestOrder(t, db, alice, string(models.StatusOrdered))
	testutil.CreateTestOrder(t, db, alice, string(models.StatusDelivered))
	testutil.CreateTestOrder(t, db, bob, string(models.StatusOrdered))

	countOrders := func(userID string) int {
		rec := doJSON(t, ListOrders(db), http.MethodGet, "/api/orders", userID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []models.Order `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return len(resp.Data)
	}

	assert.Equal(t, 2, countOrders(alice))
	assert.Equal(t, 1, countOrders(bob))
	assert.Equal(t, 3, countOrders(admin), "admins see every order")
}

func TestIntegration_SaleStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userID := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	testutil.CreateTestOrder(t, db, userID, string(models.StatusDelivered))
	testutil.CreateTestOrder(t, db, userID, string(models.StatusDelivered))
	testutil.CreateTestOrder(t, db, userID, string(models.StatusOrdered))
	testutil.CreateTestOrder(t, db, userID, string(models.StatusCancelled))

	rec := doJSON(t, GetSaleStats(db), http.MethodGet, "/api/orders/sale", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data []models.SaleStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1, "all delivered orders share today's bucket")
	assert.Equal(t, 2, resp.Data[0].Orders, "only delivered orders count")
	assert.Equal(t, 200000.0, resp.Data[0].Revenue)
}

func TestIntegration_DeleteOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userID := testutil.CreateTestUser(t, db, testutil.RandomEmail(), "matkhau123", models.RoleCustomer)
	orderID := testutil.CreateTestOrder(t, db, userID, string(models.StatusOrdered))

	rec := doJSON(t, DeleteOrder(db), http.MethodDelete, "/api/orders/"+orderID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, DeleteOrder(db), http.MethodDelete, "/api/orders/"+orderID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
