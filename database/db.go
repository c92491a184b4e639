// Package database opens the relational store, migrates the schema and
// exposes the shared *gorm.DB handle.
package database

import (
	"errors"
	"fmt"
	"log"

	"github.com/yamdb/yamdb/config"
	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/util/validate"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db       *gorm.DB
	dbConfig *config.DatabaseConfig
)

func initModels() error {
	models := []any{
		&model.User{},
		&model.Category{},
		&model.Genre{},
		&model.Title{},
		&model.GenreTitle{},
		&model.Review{},
		&model.Comment{},
		&model.AuditLog{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			log.Printf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

// InitDB opens the configured database and migrates every model.
func InitDB(cfg *config.DatabaseConfig) error {
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	if cfg.IsPostgreSQL() {
		dialector = postgres.Open(cfg.GetDSN())
	} else {
		dialector = sqlite.Open(cfg.GetDSN())
	}

	var err error
	db, err = gorm.Open(dialector, c)
	if err != nil {
		return err
	}
	dbConfig = cfg

	if cfg.IsSQLite() {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON;",
			"PRAGMA temp_store = MEMORY;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return err
			}
		}
	}

	return initModels()
}

// Migrate runs the schema migration against an already opened database.
func Migrate() error {
	if db == nil {
		return errors.New("database is not initialized")
	}
	return initModels()
}

// EnsureSuperuser creates the account or promotes an existing one. It
// refuses to touch a row where only one of username/email matches.
func EnsureSuperuser(username, email string) (*model.User, error) {
	account := struct {
		Username string `json:"username" binding:"required,notreserved,max=150,username"`
		Email    string `json:"email" binding:"required,max=254,email"`
	}{username, email}
	if err := validate.Struct(account, false); err != nil {
		return nil, err
	}
	user := &model.User{}
	err := db.Where("username = ? OR email = ?", username, email).First(user).Error
	switch {
	case IsNotFound(err):
		user = &model.User{
			Username:    username,
			Email:       email,
			Role:        model.RoleAdmin,
			IsSuperuser: true,
		}
		return user, db.Create(user).Error
	case err != nil:
		return nil, err
	}
	if user.Username != username || user.Email != email {
		return nil, fmt.Errorf("username %q and email %q belong to different accounts", username, email)
	}
	user.Role = model.RoleAdmin
	user.IsSuperuser = true
	return user, db.Save(user).Error
}

func CloseDB() error {
	if db != nil {
		if err := Checkpoint(); err != nil {
			log.Printf("error executing checkpoint: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		err = sqlDB.Close()
		db = nil
		return err
	}
	return nil
}

func GetDB() *gorm.DB {
	return db
}

// IsSQLite reports whether the open database is sqlite.
func IsSQLite() bool {
	return dbConfig != nil && dbConfig.IsSQLite()
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports a unique constraint violation, as translated by
// the gorm dialector.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Checkpoint flushes the sqlite WAL into the main database file.
func Checkpoint() error {
	if db == nil || !IsSQLite() {
		return nil
	}
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
