package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harper/dealdesk/internal/auth"
	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/seats"
	"github.com/harper/dealdesk/pkg/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Invite{},
		&models.Company{},
		&models.Deal{},
		&models.CRMConnection{},
		&models.Upload{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// TestBilling is the plan policy table used throughout the tests.
func TestBilling() config.BillingConfig {
	return config.BillingConfig{
		PlanSeats: map[string]int{
			"starter":  5,
			"team":     15,
			"business": 50,
		},
	}
}

// DiscardLogger returns a logger that swallows output
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateSeatService wires a seats.Service against the given DB with the
// test plan table and no notifier.
func CreateSeatService(db *gorm.DB) *seats.Service {
	return seats.NewService(db, TestBilling(), nil, DiscardLogger())
}

// CreateTestOrg creates a test organization with the given seat limit
func CreateTestOrg(t *testing.T, db *gorm.DB, seatLimit int) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{
			ID: uuid.New(),
		},
		Name:      "Test Organization",
		Tier:      "team",
		SeatLimit: seatLimit,
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestAdmin creates an active administrator of the organization
func CreateTestAdmin(t *testing.T, db *gorm.DB, org *models.Organization) *models.User {
	t.Helper()

	user := createUser(t, db, "admin-"+uuid.New().String()[:8]+"@example.com")
	user.OrganizationID = &org.ID
	user.IsActive = true
	user.IsAdmin = true
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("failed to promote test admin: %v", err)
	}

	user.Organization = org
	return user
}

// CreateTestMember creates a member of the organization with the given
// email and activation state
func CreateTestMember(t *testing.T, db *gorm.DB, org *models.Organization, email string, active bool) *models.User {
	t.Helper()

	user := createUser(t, db, email)
	user.OrganizationID = &org.ID
	user.IsActive = active
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("failed to attach test member: %v", err)
	}

	user.Organization = org
	return user
}

// CreateTestIdentity creates a signed-up identity with no organization
// and no active seat
func CreateTestIdentity(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email)
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestInvite creates a pending invite for the given address
func CreateTestInvite(t *testing.T, db *gorm.DB, org *models.Organization, email string) *models.Invite {
	t.Helper()

	invite := &models.Invite{
		Base: models.Base{
			ID: uuid.New(),
		},
		OrganizationID: org.ID,
		Email:          email,
		Token:          "test-token-" + uuid.New().String(),
		Status:         models.InviteStatusPending,
	}

	if err := db.Create(invite).Error; err != nil {
		t.Fatalf("failed to create test invite: %v", err)
	}

	return invite
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds all the common test dependencies
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Seats      *seats.Service
	Org        *models.Organization
	Admin      *models.User
	Token      string
}

// NewTestContext creates a complete test setup with DB, org, admin, and token
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	org := CreateTestOrg(t, db, 5)
	admin := CreateTestAdmin(t, db, org)
	token := GenerateTestToken(t, jwtService, admin)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Seats:      CreateSeatService(db),
		Org:        org,
		Admin:      admin,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}
