package repositories_gorm

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gitlab.com/nunet/yarn-data/models"
)

var db *gorm.DB

// setup initializes and sets up the in-memory SQLite database connection for testing purposes.
// Additionally, it automatically migrates the necessary models to ensure the schema is up-to-date.
func setup() {
	// Set up the database connection for tests
	var err error
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic("failed to connect to database")
	}

	// every connection to :memory: is a new database, keep a single one
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Run Migrations if needed
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderLine{},
	); err != nil {
		panic(err)
	}
}

// teardown closes the in-memory database, dropping everything the test stored.
func teardown() {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// seedOrders stores orders for two tenants: two for tenant 1 and one for tenant 2.
func seedOrders(repo *GenericRepositoryGORM[models.Order, uint]) []models.Order {
	orders := []models.Order{
		{TenantID: 1, OwnerID: 10, Number: "A-1", Customer: "Acme Corp", Status: models.OrderStatusShipped, Total: 120},
		{TenantID: 1, OwnerID: 10, Number: "A-2", Customer: "Globex", Status: models.OrderStatusPending, Total: 40},
		{TenantID: 2, OwnerID: 20, Number: "B-1", Customer: "Acme Corp", Status: models.OrderStatusShipped, Total: 75},
	}
	for i := range orders {
		created, err := repo.Add(context.Background(), orders[i])
		if err != nil {
			panic(err)
		}
		orders[i] = created
	}
	return orders
}
