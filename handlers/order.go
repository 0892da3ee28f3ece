package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"veshop-backend/models"
	"veshop-backend/pkg/apperror"
	"veshop-backend/pkg/logger"
	"veshop-backend/pkg/notification"
	"veshop-backend/pkg/response"
	"veshop-backend/pkg/validator"
	"veshop-backend/pkg/websocket"

	"go.uber.org/zap"
)

// CustomerOrdersHandler routes /api/orders: GET lists the caller's orders
// (all orders for admins), POST creates a new order.
func CustomerOrdersHandler(db *sql.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ListOrders(db)(w, r)
		case http.MethodPost:
			CreateOrder(db, hub)(w, r)
		default:
			response.Error(w, r, apperror.NewValidationError("Phương thức không được hỗ trợ"))
		}
	}
}

// ListOrders returns the caller's orders, newest first. Admins see every
// order along with the customer name.
func ListOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)

		var role string
		if err := db.QueryRow("SELECT COALESCE(role, 'customer') FROM users WHERE id = $1", userID).Scan(&role); err != nil {
			response.Error(w, r, apperror.NewDatabaseError("role lookup", err))
			return
		}

		query := `
			SELECT o.id, o.user_id, u.name, o.address, o.total, o.status, o.status_payment, o.create_date, o.updated_at
			FROM orders o
			JOIN users u ON u.id = o.user_id
		`
		args := []interface{}{}
		if role != models.RoleAdmin {
			query += " WHERE o.user_id = $1"
			args = append(args, userID)
		}
		query += " ORDER BY o.create_date DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("orders query", err))
			return
		}
		defer rows.Close()

		orders := []models.Order{}
		orderIDs := []string{}
		for rows.Next() {
			var o models.Order
			if err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &o.Address, &o.Total,
				&o.Status, &o.StatusPayment, &o.CreateDate, &o.UpdatedAt); err != nil {
				logger.Warn("Order scan failed", zap.Error(err))
				continue
			}
			orders = append(orders, o)
			orderIDs = append(orderIDs, o.ID)
		}

		if err := attachOrderItems(db, orders, orderIDs); err != nil {
			logger.Warn("Order items query failed", zap.Error(err))
		}

		response.Success(w, orders, "")
	}
}

// GetOrderByID returns one order with its items. Customers may only read
// their own orders.
func GetOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức GET"))
			return
		}

		orderID, err := pathID(r, "/api/orders/")
		if err != nil {
			response.Error(w, r, err)
			return
		}
		userID := requestUserID(r)

		var o models.Order
		err = db.QueryRow(`
			SELECT o.id, o.user_id, u.name, o.address, o.total, o.status, o.status_payment, o.create_date, o.updated_at
			FROM orders o
			JOIN users u ON u.id = o.user_id
			WHERE o.id = $1
		`, orderID).Scan(&o.ID, &o.UserID, &o.UserName, &o.Address, &o.Total,
			&o.Status, &o.StatusPayment, &o.CreateDate, &o.UpdatedAt)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy đơn hàng"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("order query", err))
			return
		}

		if o.UserID != userID {
			var role string
			if err := db.QueryRow("SELECT COALESCE(role, 'customer') FROM users WHERE id = $1", userID).Scan(&role); err != nil || role != models.RoleAdmin {
				response.Error(w, r, apperror.NewForbiddenError("Bạn không có quyền xem đơn hàng này"))
				return
			}
		}

		orders := []models.Order{o}
		if err := attachOrderItems(db, orders, []string{o.ID}); err != nil {
			logger.Warn("Order items query failed", zap.Error(err))
		}

		response.Success(w, orders[0], "")
	}
}

// CreateOrder places an order in a single transaction: each line item's
// stock is decremented with a guard against overselling, the total is
// computed from current catalog prices, and the new order is broadcast
// to the admin dashboard.
func CreateOrder(db *sql.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if err := validator.Validate(req); err != nil {
			response.Error(w, r, err)
			return
		}
		userID := requestUserID(r)

		tx, err := db.Begin()
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("begin transaction", err))
			return
		}
		defer tx.Rollback()

		total := 0.0
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			// Guarded decrement, fails when stock is insufficient.
			result, err := tx.Exec(`
				UPDATE product_items SET quantity = quantity - $1
				WHERE id = $2 AND quantity >= $1
			`, item.Quantity, item.ProductItemID)
			if err != nil {
				response.Error(w, r, apperror.NewDatabaseError("stock update", err))
				return
			}
			if rows, _ := result.RowsAffected(); rows == 0 {
				response.Error(w, r, apperror.NewConflictError("Sản phẩm đã hết hàng hoặc không đủ số lượng"))
				return
			}

			var price float64
			var productName, color string
			err = tx.QueryRow(`
				SELECT p.price, p.name, pi.color
				FROM product_items pi
				JOIN products p ON p.id = pi.product_id
				WHERE pi.id = $1
			`, item.ProductItemID).Scan(&price, &productName, &color)
			if err != nil {
				response.Error(w, r, apperror.NewDatabaseError("product lookup", err))
				return
			}

			total += price * float64(item.Quantity)
			items = append(items, models.OrderItem{
				ProductItemID: item.ProductItemID,
				ProductName:   productName,
				Color:         color,
				Quantity:      item.Quantity,
				Price:         price,
			})
		}

		var order models.Order
		err = tx.QueryRow(`
			INSERT INTO orders (user_id, address, total)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, address, total, status, status_payment, create_date, updated_at
		`, userID, req.Address, total).Scan(
			&order.ID, &order.UserID, &order.Address, &order.Total,
			&order.Status, &order.StatusPayment, &order.CreateDate, &order.UpdatedAt,
		)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("order insert", err))
			return
		}

		for i := range items {
			err = tx.QueryRow(`
				INSERT INTO order_items (order_id, product_item_id, quantity, price)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, order.ID, items[i].ProductItemID, items[i].Quantity, items[i].Price).Scan(&items[i].ID)
			if err != nil {
				response.Error(w, r, apperror.NewDatabaseError("order item insert", err))
				return
			}
			items[i].OrderID = order.ID
		}
		order.Items = items

		if err := tx.Commit(); err != nil {
			response.Error(w, r, apperror.NewDatabaseError("commit transaction", err))
			return
		}

		if hub != nil {
			hub.Broadcast("new_order", order)
		}

		logger.Info("✅ Order created",
			zap.String("order_id", order.ID),
			zap.String("user_id", userID),
			zap.Float64("total", total),
		)
		response.Created(w, order, "Đặt hàng thành công")
	}
}

// transitionMessages are the customer-facing push texts per target status.
var transitionMessages = map[models.OrderStatus]string{
	models.StatusShipping:  "Đơn hàng của bạn đang được giao",
	models.StatusDelivered: "Đơn hàng của bạn đã được giao thành công",
	models.StatusCancelled: "Đơn hàng của bạn đã bị hủy",
}

// TransitionOrder moves an order to the target status. The update is a
// compare-and-set on the current status so concurrent transitions cannot
// both win; delivery also marks the order paid.
func TransitionOrder(db *sql.DB, hub *websocket.Hub, notifier *notification.OneSignalService, prefix string, target models.OrderStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức PATCH"))
			return
		}

		orderID, err := pathID(r, prefix)
		if err != nil {
			response.Error(w, r, err)
			return
		}

		var current models.OrderStatus
		var customerID string
		err = db.QueryRow("SELECT status, user_id FROM orders WHERE id = $1", orderID).Scan(&current, &customerID)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy đơn hàng"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("order query", err))
			return
		}

		if !models.CanTransition(current, target) {
			response.Error(w, r, apperror.NewInvalidTransitionError(
				fmt.Sprintf("Không thể chuyển đơn hàng từ trạng thái %q sang %q", current, target)))
			return
		}

		query := "UPDATE orders SET status = $1, updated_at = NOW()"
		if target == models.StatusDelivered {
			// Cash on delivery: the order is paid once it arrives.
			query += ", status_payment = 'paid'"
		}
		query += " WHERE id = $2 AND status = $3"

		result, err := db.Exec(query, target, orderID, current)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("order update", err))
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			// Lost the race: someone moved the order first.
			response.Error(w, r, apperror.NewInvalidTransitionError("Đơn hàng vừa được cập nhật, vui lòng thử lại"))
			return
		}

		if hub != nil {
			hub.Broadcast("order_update", map[string]interface{}{
				"order_id":   orderID,
				"old_status": current,
				"new_status": target,
			})
		}
		notifyCustomer(db, notifier, customerID, orderID, target)

		logger.Info("✅ Order transitioned",
			zap.String("order_id", orderID),
			zap.String("from", string(current)),
			zap.String("to", string(target)),
		)
		response.Success(w, map[string]interface{}{
			"id":     orderID,
			"status": target,
		}, "Cập nhật trạng thái đơn hàng thành công")
	}
}

// UpdatePayment sets the payment status directly; it is the manual path for
// bank transfers confirmed out of band.
func UpdatePayment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức PATCH"))
			return
		}

		orderID, err := pathID(r, "/api/orders/payment/")
		if err != nil {
			response.Error(w, r, err)
			return
		}

		var req models.UpdatePaymentRequest
		if err := decodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}
		if !req.StatusPayment.Valid() {
			response.Error(w, r, apperror.NewValidationError("Trạng thái thanh toán không hợp lệ"))
			return
		}

		var status models.OrderStatus
		err = db.QueryRow(`SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
		if err == sql.ErrNoRows {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy đơn hàng"))
			return
		}
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("payment lookup", err))
			return
		}
		if status == models.StatusDelivered {
			// Delivery settles the payment; it cannot be reopened afterwards.
			response.Error(w, r, apperror.NewInvalidTransitionError("Đơn hàng đã giao, không thể thay đổi trạng thái thanh toán"))
			return
		}

		result, err := db.Exec(`
			UPDATE orders SET status_payment = $1, updated_at = NOW()
			WHERE id = $2 AND status <> $3
		`, req.StatusPayment, orderID, models.StatusDelivered)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("payment update", err))
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			response.Error(w, r, apperror.NewInvalidTransitionError("Đơn hàng vừa được cập nhật, vui lòng thử lại"))
			return
		}

		response.Success(w, map[string]interface{}{
			"id":            orderID,
			"statusPayment": req.StatusPayment,
		}, "Cập nhật trạng thái thanh toán thành công")
	}
}

// DeleteOrder removes an order and its items (admin only, wired in main).
func DeleteOrder(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathID(r, "/api/orders/")
		if err != nil {
			response.Error(w, r, err)
			return
		}

		result, err := db.Exec("DELETE FROM orders WHERE id = $1", orderID)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("order delete", err))
			return
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			response.Error(w, r, apperror.NewNotFoundError("Không tìm thấy đơn hàng"))
			return
		}

		logger.Info("🗑️ Order deleted", zap.String("order_id", orderID))
		response.Success(w, nil, "Xóa đơn hàng thành công")
	}
}

// GetSaleStats aggregates delivered-order revenue per day for the admin
// dashboard. Only delivered orders count as realized revenue.
func GetSaleStats(db *sql.DB) http.HandlerFunc {
	return saleStats(db, "YYYY-MM-DD")
}

// GetMonthlySaleStats aggregates per month.
func GetMonthlySaleStats(db *sql.DB) http.HandlerFunc {
	return saleStats(db, "YYYY-MM")
}

// GetAnnualSaleStats aggregates per year.
func GetAnnualSaleStats(db *sql.DB) http.HandlerFunc {
	return saleStats(db, "YYYY")
}

func saleStats(db *sql.DB, format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.Error(w, r, apperror.NewValidationError("Chỉ hỗ trợ phương thức GET"))
			return
		}

		rows, err := db.Query(`
			SELECT TO_CHAR(create_date, $1) AS period, COUNT(*), COALESCE(SUM(total), 0)
			FROM orders
			WHERE status = $2
			GROUP BY period
			ORDER BY period DESC
		`, format, models.StatusDelivered)
		if err != nil {
			response.Error(w, r, apperror.NewDatabaseError("sale stats query", err))
			return
		}
		defer rows.Close()

		stats := []models.SaleStats{}
		for rows.Next() {
			var s models.SaleStats
			if err := rows.Scan(&s.Period, &s.Orders, &s.Revenue); err != nil {
				logger.Warn("Sale stats scan failed", zap.Error(err))
				continue
			}
			stats = append(stats, s)
		}

		response.Success(w, stats, "")
	}
}

// attachOrderItems loads line items for the given orders in one query.
func attachOrderItems(db *sql.DB, orders []models.Order, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(orderIDs))
	args := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := db.Query(fmt.Sprintf(`
		SELECT oi.id, oi.order_id, oi.product_item_id, p.name, pi.color, COALESCE(pi.image, p.image, ''), oi.quantity, oi.price
		FROM order_items oi
		JOIN product_items pi ON pi.id = oi.product_item_id
		JOIN products p ON p.id = pi.product_id
		WHERE oi.order_id IN (%s)
		ORDER BY oi.created_at ASC
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	itemsMap := make(map[string][]models.OrderItem)
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductItemID, &item.ProductName,
			&item.Color, &item.Image, &item.Quantity, &item.Price); err != nil {
			logger.Warn("Order item scan failed", zap.Error(err))
			continue
		}
		itemsMap[item.OrderID] = append(itemsMap[item.OrderID], item)
	}

	for i := range orders {
		if items, ok := itemsMap[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return nil
}

// notifyCustomer pushes a status change to the order's customer when they
// have a registered device.
func notifyCustomer(db *sql.DB, notifier *notification.OneSignalService, customerID, orderID string, status models.OrderStatus) {
	if notifier == nil || !notifier.Enabled() {
		return
	}

	var playerID sql.NullString
	if err := db.QueryRow("SELECT onesignal_id FROM users WHERE id = $1", customerID).Scan(&playerID); err != nil {
		logger.Warn("OneSignal player lookup failed", zap.String("user_id", customerID), zap.Error(err))
		return
	}
	if !playerID.Valid || playerID.String == "" {
		return
	}

	notifier.SendNotificationAsync(playerID.String, "Cập nhật đơn hàng", transitionMessages[status], map[string]interface{}{
		"order_id": orderID,
		"status":   string(status),
	})
}
