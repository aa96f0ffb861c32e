package postgres

import (
	"context"
	stderrors "errors"
	"reflect"

	errors "github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/equipment"
	"gorm.io/gorm"
)

// EquipmentRepository stores every kind in its own table; the table is
// taken from the record's TableName.
type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) equipment.RepositoryAPI {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) Create(ctx context.Context, rec equipment.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *EquipmentRepository) GetByID(ctx context.Context, d equipment.Descriptor, id int64) (equipment.Record, error) {
	rec := d.New()
	err := r.db.WithContext(ctx).Where("id = ?", id).First(rec).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRecordNotFound.WithMessage(d.Label + " not found")
		}
		return nil, err
	}
	return rec, nil
}

// List returns all records of the kind ordered by id.
func (r *EquipmentRepository) List(ctx context.Context, d equipment.Descriptor) ([]equipment.Record, error) {
	elem := reflect.TypeOf(d.New())
	slicePtr := reflect.New(reflect.SliceOf(elem))

	if err := r.db.WithContext(ctx).Order("id ASC").Find(slicePtr.Interface()).Error; err != nil {
		return nil, err
	}

	slice := slicePtr.Elem()
	records := make([]equipment.Record, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		records[i] = slice.Index(i).Interface().(equipment.Record)
	}
	return records, nil
}

// Save overwrites every attribute of an existing row. A row deleted in the
// meantime is reported as not found and never recreated.
func (r *EquipmentRepository) Save(ctx context.Context, rec equipment.Record) error {
	res := r.db.WithContext(ctx).
		Model(rec).
		Where("id = ?", rec.Meta().ID).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrRecordNotFound
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, d equipment.Descriptor, id int64) error {
	res := r.db.WithContext(ctx).Delete(d.New(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrRecordNotFound.WithMessage(d.Label + " not found")
	}
	return nil
}
