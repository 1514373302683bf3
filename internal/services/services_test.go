package services

import (
	"testing"

	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	// A single connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.RefreshCredential{}, &models.Booking{}, &models.Ticket{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func loadTickets(t *testing.T, db *gorm.DB, bookingID string) []models.Ticket {
	t.Helper()
	var tickets []models.Ticket
	if err := db.Where("booking_id = ?", bookingID).Find(&tickets).Error; err != nil {
		t.Fatalf("load tickets: %v", err)
	}
	if len(tickets) == 0 {
		t.Fatalf("no tickets for booking %s", bookingID)
	}
	return tickets
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		SigningKey:          "test-signing-key",
		AccessTokenMinutes:  5,
		RefreshLifetimeDays: 14,
		Issuer:              "tripora-test",
	}
}
