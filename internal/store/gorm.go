package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormStore is the PostgreSQL record store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open database handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the products table
func (s *GormStore) Migrate() error {
	return errors.Wrap(s.db.AutoMigrate(&model.Product{}), "migrate products")
}

// loadOrder is the order Select returns rows in
const loadOrder = "display_order ASC NULLS FIRST, created_at DESC, id ASC"

func (s *GormStore) Select(ctx context.Context, brand string) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var products []model.Product
	err := s.db.WithContext(ctx).
		Where("brand = ?", brand).
		Order(loadOrder).
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrapf(err, "select products of %s", brand)
	}
	return products, nil
}

func (s *GormStore) Insert(ctx context.Context, p model.Product) (model.Product, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	p.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.headOrder(tx, p.Brand)
		if err != nil {
			return err
		}
		p.DisplayOrder = &order
		return tx.Create(&p).Error
	})
	if err != nil {
		return model.Product{}, errors.Wrapf(err, "insert product into %s", p.Brand)
	}
	return p, nil
}

func (s *GormStore) UpdateByID(ctx context.Context, brand string, id uint, patch model.ProductPatch) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	if patch.IsEmpty() {
		return nil
	}
	result := s.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND brand = ?", id, brand).
		Updates(patch.Columns())
	if result.Error != nil {
		return errors.Wrapf(result.Error, "update product %d", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "update product %d", id)
	}
	return nil
}

func (s *GormStore) DeleteByID(ctx context.Context, brand string, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	result := s.db.WithContext(ctx).
		Where("id = ? AND brand = ?", id, brand).
		Delete(&model.Product{})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "delete product %d", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "delete product %d", id)
	}
	return nil
}

// headOrder returns a display order that sorts before every row of brand.
// Rows without an order are numbered first, in load order: NULL sorts before
// every value.
func (s *GormStore) headOrder(tx *gorm.DB, brand string) (int, error) {
	var legacy int64
	if err := tx.Model(&model.Product{}).
		Where("brand = ? AND display_order IS NULL", brand).
		Count(&legacy).Error; err != nil {
		return 0, err
	}

	if legacy > 0 {
		var ids []uint
		if err := tx.Model(&model.Product{}).
			Where("brand = ?", brand).
			Order(loadOrder).
			Pluck("id", &ids).Error; err != nil {
			return 0, err
		}
		for i, id := range ids {
			if err := tx.Model(&model.Product{}).
				Where("id = ?", id).
				UpdateColumn("display_order", i+1).Error; err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	var minOrder sql.NullInt64
	if err := tx.Model(&model.Product{}).
		Where("brand = ?", brand).
		Select("MIN(display_order)").
		Row().Scan(&minOrder); err != nil {
		return 0, err
	}
	if !minOrder.Valid {
		return 0, nil
	}
	return int(minOrder.Int64) - 1, nil
}
