package gorm

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	tx "github.com/tigerroll/soundings/pkg/archive/core/tx"
	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// TableNamer represents a struct that has a TableName() string method.
type TableNamer interface {
	TableName() string
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

// applyTableName scopes db to the table of model, which may be an entity or a slice of entities.
func applyTableName(db *gorm.DB, model interface{}) *gorm.DB {
	if namer, ok := model.(TableNamer); ok {
		return db.Table(namer.TableName())
	}

	val := reflect.ValueOf(model)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() == reflect.Slice || val.Kind() == reflect.Array {
		elemType := val.Type().Elem()
		if elemType.Kind() == reflect.Ptr {
			elemType = elemType.Elem()
		}
		if reflect.PointerTo(elemType).Implements(tableNamerType) {
			if namer, ok := reflect.New(elemType).Interface().(TableNamer); ok {
				return db.Table(namer.TableName())
			}
		}
	}

	return db.Model(model)
}

// executor implements tx.TxExecutor over a *gorm.DB, which is either a plain session or
// an open transaction.
type executor struct {
	db     *gorm.DB
	dbType string
}

// ExecuteUpdate implements tx.TxExecutor.
func (e *executor) ExecuteUpdate(ctx context.Context, model interface{}, operation string, tableName string, query map[string]interface{}) (int64, error) {
	db := e.db.WithContext(ctx)
	if tableName != "" {
		db = db.Table(tableName)
	}

	var result *gorm.DB
	switch operation {
	case "CREATE":
		result = db.Create(model)

	case "UPDATE":
		if assignments, ok := model.(map[string]interface{}); ok {
			if tableName == "" {
				return 0, fmt.Errorf("UPDATE with column assignments requires a table name")
			}
			result = db.Where(query).Updates(assignments)
		} else {
			result = db.Model(model).Where(query).Updates(model)
		}

	case "DELETE":
		if query != nil {
			db = db.Where(query)
		}
		result = db.Delete(model)

	default:
		return 0, fmt.Errorf("unsupported update operation: %s", operation)
	}

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExecuteUpsert implements tx.TxExecutor.
func (e *executor) ExecuteUpsert(ctx context.Context, model interface{}, tableName string, conflictColumns []string, updateColumns []string) (int64, error) {
	db := e.db.WithContext(ctx)
	if tableName != "" {
		db = db.Table(tableName)
	}

	var columns []clause.Column
	for _, col := range conflictColumns {
		columns = append(columns, clause.Column{Name: col})
	}
	onConflict := clause.OnConflict{Columns: columns}
	if len(updateColumns) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(updateColumns)
	} else {
		onConflict.DoNothing = true
	}

	result := db.Clauses(onConflict).Create(model)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExecuteQuery implements tx.TxExecutor.
func (e *executor) ExecuteQuery(ctx context.Context, target interface{}, query map[string]interface{}) error {
	db := applyTableName(e.db.WithContext(ctx), target)
	if len(query) > 0 {
		db = db.Where(query)
	}
	return db.Find(target).Error
}

// ExecuteQueryAdvanced implements tx.TxExecutor.
func (e *executor) ExecuteQueryAdvanced(ctx context.Context, target interface{}, query map[string]interface{}, orderBy string, limit int) error {
	db := applyTableName(e.db.WithContext(ctx), target)
	if len(query) > 0 {
		db = db.Where(query)
	}
	if orderBy != "" {
		db = db.Order(orderBy)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	return db.Find(target).Error
}

// Select implements tx.TxExecutor.
func (e *executor) Select(ctx context.Context, target interface{}, q tx.Query) error {
	db := applyTableName(e.db.WithContext(ctx), target)
	if len(q.Where) > 0 {
		db = db.Where(q.Where)
	}
	for _, r := range q.Ranges {
		col := clause.Column{Name: r.Column}
		if r.From != nil {
			db = db.Where(clause.Gte{Column: col, Value: r.From})
		}
		if r.To != nil {
			db = db.Where(clause.Lt{Column: col, Value: r.To})
		}
	}
	for _, o := range q.OrderBy {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db.Find(target).Error
}

// Count implements tx.TxExecutor.
func (e *executor) Count(ctx context.Context, model interface{}, query map[string]interface{}) (int64, error) {
	db := applyTableName(e.db.WithContext(ctx), model)
	if len(query) > 0 {
		db = db.Where(query)
	}
	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Pluck implements tx.TxExecutor.
func (e *executor) Pluck(ctx context.Context, model interface{}, column string, target interface{}, query map[string]interface{}) error {
	db := applyTableName(e.db.WithContext(ctx), model)
	if len(query) > 0 {
		db = db.Where(query)
	}
	return db.Distinct().Pluck(column, target).Error
}

// ClassifyError implements tx.TxExecutor.
func (e *executor) ClassifyError(err error) exception.Kind {
	return ClassifyError(e.dbType, err)
}

var _ tx.TxExecutor = (*executor)(nil)
