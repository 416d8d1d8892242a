// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package assetdb holds the gorm queries shared by the relational metadata
// store plugins
package assetdb

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

const (
	maxIdleConns    = 10
	connMaxLifetime = time.Hour
)

const pubkeyExistsQuery = "EXISTS (SELECT 1 FROM program_asset_pubkey WHERE program_asset_pubkey.asset_row_id = program_asset.id AND program_asset_pubkey.pubkey = ?)"

// GormConfig is the gorm configuration every relational store opens with.
// Server-backed stores also cache prepared statements.
func GormConfig(prepareStmt bool) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		PrepareStmt:            prepareStmt,
		TranslateError:         true,
	}
}

// Prepare installs query tracing on db and migrates the indexer tables
func Prepare(db *gorm.DB, logger *slog.Logger) error {
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return fmt.Errorf("install tracing: %w", err)
	}
	for _, model := range models.MigrateModels {
		logger.Debug(
			fmt.Sprintf("migrating table for %T", model),
			"component", "database",
		)
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}

// LimitPool bounds the connection pool of a server-backed store
func LimitPool(db *gorm.DB, maxConns int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(min(maxConns, maxIdleConns))
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return nil
}

func preloadPubkeys(db *gorm.DB) *gorm.DB {
	return db.Preload("Pubkeys", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

// CreateAsset inserts an asset and its pubkeys. It fails with
// types.ErrAssetExists if the asset is already present.
func CreateAsset(db *gorm.DB, asset *models.Asset) error {
	var count int64
	result := db.Model(&models.Asset{}).
		Where("program_id = ? AND asset_id = ?", asset.ProgramID, asset.AssetID).
		Count(&count)
	if result.Error != nil {
		return result.Error
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", types.ErrAssetExists, asset.AssetID)
	}
	if result := db.Create(asset); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", types.ErrAssetExists, asset.AssetID)
		}
		return result.Error
	}
	return nil
}

// DeleteAsset removes an asset and its pubkeys. It fails with
// types.ErrAssetNotFound if the asset is not present.
func DeleteAsset(db *gorm.DB, programID, assetID string) error {
	var asset models.Asset
	result := db.Where("program_id = ? AND asset_id = ?", programID, assetID).
		Select("id").
		First(&asset)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", types.ErrAssetNotFound, assetID)
		}
		return result.Error
	}
	if result := db.Where("asset_row_id = ?", asset.ID).
		Delete(&models.AssetPubkey{}); result.Error != nil {
		return result.Error
	}
	result = db.Delete(&models.Asset{}, asset.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", types.ErrAssetNotFound, assetID)
	}
	return nil
}

// GetAsset returns the asset, or nil if it is not present
func GetAsset(db *gorm.DB, programID, assetID string) (*models.Asset, error) {
	ret := &models.Asset{}
	result := preloadPubkeys(db).
		Where("program_id = ? AND asset_id = ?", programID, assetID).
		First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetAssets returns the program's assets matching every predicate of filter,
// ordered by asset identifier
func GetAssets(
	db *gorm.DB,
	programID string,
	filter types.AssetFilter,
) ([]models.Asset, error) {
	query := preloadPubkeys(db).Where("program_id = ?", programID)
	if filter.AssetID != "" {
		query = query.Where("asset_id = ?", filter.AssetID)
	}
	if filter.ExcludeAssetID != "" {
		query = query.Where("asset_id <> ?", filter.ExcludeAssetID)
	}
	if filter.Authority != "" {
		query = query.Where("authority = ?", filter.Authority)
	}
	if filter.PubkeyContains != "" {
		query = query.Where(pubkeyExistsQuery, filter.PubkeyContains)
	}
	if len(filter.Discriminator) > 0 {
		query = query.Where("discriminator = ?", filter.Discriminator)
	}
	var ret []models.Asset
	if result := query.Order("asset_id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ClearAssets removes every asset of a program and returns the number of
// assets removed
func ClearAssets(db *gorm.DB, programID string) (int64, error) {
	result := db.Where(
		"asset_row_id IN (?)",
		db.Model(&models.Asset{}).Select("id").Where("program_id = ?", programID),
	).Delete(&models.AssetPubkey{})
	if result.Error != nil {
		return 0, result.Error
	}
	result = db.Where("program_id = ?", programID).Delete(&models.Asset{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DropTables drops every table in models.MigrateModels
func DropTables(db *gorm.DB) error {
	for i := len(models.MigrateModels) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models.MigrateModels[i]); err != nil {
			return err
		}
	}
	return nil
}

func GetSyncState(db *gorm.DB, key string) (string, error) {
	var ret models.SyncState
	result := db.Where("sync_key = ?", key).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return ret.Value, nil
}

func SetSyncState(db *gorm.DB, key, value string) error {
	tmpItem := models.SyncState{Key: key, Value: value}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sync_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&tmpItem)
	return result.Error
}

func DeleteSyncState(db *gorm.DB, key string) error {
	result := db.Where("sync_key = ?", key).Delete(&models.SyncState{})
	return result.Error
}
