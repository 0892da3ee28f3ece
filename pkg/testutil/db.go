package testutil

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// SetupTestDB connects to the test database. Integration tests call this
// and are skipped entirely when the database is unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbHost := getEnvOrDefault("TEST_DB_HOST", "localhost")
	dbPort := getEnvOrDefault("TEST_DB_PORT", "5432")
	dbUser := getEnvOrDefault("TEST_DB_USER", "veshop_user")
	dbPassword := getEnvOrDefault("TEST_DB_PASSWORD", "")
	dbName := getEnvOrDefault("TEST_DB_NAME", "veshop_test")

	psqlInfo := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err = db.Ping(); err != nil {
		t.Skipf("Test database not available: %v", err)
	}

	return db
}

// CleanupTestDB truncates all tables and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{"order_items", "orders", "product_items", "products", "categories", "brands", "users"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}

	db.Close()
}

// CreateTestUser inserts a verified user and returns its id.
func CreateTestUser(t *testing.T, db *sql.DB, email, password, role string) string {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	userID := uuid.New().String()
	_, err = db.Exec(`
        INSERT INTO users (id, name, email, password, role, verified)
        VALUES ($1, $2, $3, $4, $5, true)
    `, userID, "Test User", email, string(hashed), role)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// CreateTestProduct inserts a product with one color variant and returns
// the product id and the variant id.
func CreateTestProduct(t *testing.T, db *sql.DB, name string, price float64, stock int) (string, string) {
	t.Helper()

	productID := uuid.New().String()
	_, err := db.Exec(`
        INSERT INTO products (id, name, price)
        VALUES ($1, $2, $3)
    `, productID, name, price)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	itemID := uuid.New().String()
	_, err = db.Exec(`
        INSERT INTO product_items (id, product_id, color, quantity)
        VALUES ($1, $2, $3, $4)
    `, itemID, productID, "Đen", stock)
	if err != nil {
		t.Fatalf("Failed to create test product item: %v", err)
	}

	return productID, itemID
}

// CreateTestOrder inserts an order in the given status and returns its id.
func CreateTestOrder(t *testing.T, db *sql.DB, userID, status string) string {
	t.Helper()

	orderID := uuid.New().String()
	_, err := db.Exec(`
        INSERT INTO orders (id, user_id, address, total, status)
        VALUES ($1, $2, $3, $4, $5)
    `, orderID, userID, "1 Đường Lê Lợi, Quận 1", 100000, status)
	if err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}

	return orderID
}

func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// RandomEmail returns a unique test email address.
func RandomEmail() string {
	return fmt.Sprintf("test-%s@example.com", randomString(8))
}

func randomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
