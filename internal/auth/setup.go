package auth

import (
	"log"

	"github.com/Gateward/GW-Backend/internal/authlog"
	"github.com/Gateward/GW-Backend/internal/db"
	"github.com/Gateward/GW-Backend/internal/suite"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("Failed to ensure schema app_auth: ", err)
	}

	if err := db.DB.AutoMigrate(&User{}, &suite.PasswordSuite{}, &authlog.Entry{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
