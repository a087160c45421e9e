package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-faker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-faker/pkg/audit"
	"github.com/ekaya-inc/ekaya-faker/pkg/llm"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/schema"
	"github.com/ekaya-inc/ekaya-faker/pkg/sql"
)

// BatchSize is the number of records written per batch inside the save
// transaction.
const BatchSize = 100

// WriteMode selects how records are written.
type WriteMode int

const (
	// WriteBulk inserts each batch with multi-row INSERTs and no validation.
	WriteBulk WriteMode = iota
	// WriteValidated validates and inserts records one at a time. The first
	// invalid record aborts the whole save.
	WriteValidated
)

func (m WriteMode) String() string {
	switch m {
	case WriteBulk:
		return "bulk"
	case WriteValidated:
		return "validated"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// PersistenceWriter writes generated records into the target table.
type PersistenceWriter interface {
	// Save projects records onto the table's columns and writes them in one
	// transaction. It returns the records as written; on error nothing is
	// persisted.
	Save(ctx context.Context, model *models.Model, records []models.Record, mode WriteMode) ([]models.Record, error)
}

type persistenceWriter struct {
	store   datasource.Store
	auditor *audit.SecurityAuditor
	now     func() time.Time
	logger  *zap.Logger
}

// NewPersistenceWriter creates a writer for store.
func NewPersistenceWriter(store datasource.Store, auditor *audit.SecurityAuditor, logger *zap.Logger) PersistenceWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditor == nil {
		auditor = audit.NewSecurityAuditor(logger)
	}
	return &persistenceWriter{
		store:   store,
		auditor: auditor,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.Named("persistence"),
	}
}

func (w *persistenceWriter) Save(ctx context.Context, model *models.Model, records []models.Record, mode WriteMode) ([]models.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	requestID, _ := llm.RequestIDFromContext(ctx)
	prepared := w.prepare(ctx, requestID, model, records)
	if len(prepared) == 0 {
		return nil, nil
	}

	err := w.store.WithTransaction(ctx, func(tx datasource.Tx) error {
		for start := 0; start < len(prepared); start += BatchSize {
			batch := prepared[start:min(start+BatchSize, len(prepared))]

			var err error
			if mode == WriteValidated {
				err = w.insertValidated(ctx, tx, requestID, model, batch, start)
			} else {
				err = w.insertBulk(ctx, tx, model, batch)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.auditor.LogRecordsPersisted(ctx, requestID, model.TableName, len(prepared))
	w.logger.Info("Saved records",
		zap.String("table", model.TableName),
		zap.Int("records", len(prepared)),
		zap.Stringer("mode", mode))

	return prepared, nil
}

// prepare projects every record onto the table, stamps missing timestamps
// and screens the values. Records left with no table column are dropped.
func (w *persistenceWriter) prepare(ctx context.Context, requestID uuid.UUID, model *models.Model, records []models.Record) []models.Record {
	now := w.now()
	prepared := make([]models.Record, 0, len(records))

	for i, record := range records {
		row := model.Project(record)
		for _, column := range []string{schema.ColumnCreatedAt, schema.ColumnUpdatedAt} {
			if model.HasColumn(column) && row[column] == nil {
				row[column] = now
			}
		}
		if len(row) == 0 {
			w.logger.Warn("Skipping generated record with no table columns",
				zap.String("table", model.TableName),
				zap.Int("row", i),
				zap.Strings("keys", models.SortedKeys(record)))
			continue
		}

		for _, hit := range sql.CheckRecord(row) {
			w.auditor.LogSuspiciousValue(ctx, requestID, model.TableName, audit.SuspiciousValueDetails{
				Column:      hit.Column,
				Value:       fmt.Sprint(hit.Value),
				Fingerprint: hit.Fingerprint,
				Row:         i,
			})
		}

		prepared = append(prepared, row)
	}

	return prepared
}

func (w *persistenceWriter) insertValidated(ctx context.Context, tx datasource.Tx, requestID uuid.UUID, model *models.Model, batch []models.Record, offset int) error {
	for i, record := range batch {
		if err := model.Validate(record); err != nil {
			w.auditor.LogValidationFailure(ctx, requestID, model.TableName, err.Error())
			return fmt.Errorf("record %d: %w", offset+i, err)
		}

		columns := recordColumns(model, record)
		if _, err := tx.InsertRows(ctx, model.TableName, columns, [][]any{bindRow(record, columns)}); err != nil {
			return fmt.Errorf("record %d: %w", offset+i, err)
		}
	}
	return nil
}

func (w *persistenceWriter) insertBulk(ctx context.Context, tx datasource.Tx, model *models.Model, batch []models.Record) error {
	var order []string
	groups := make(map[string][][]any)
	groupColumns := make(map[string][]string)

	for _, record := range batch {
		columns := recordColumns(model, record)
		key := strings.Join(columns, "\x00")
		if _, ok := groups[key]; !ok {
			order = append(order, key)
			groupColumns[key] = columns
		}
		groups[key] = append(groups[key], bindRow(record, columns))
	}

	for _, key := range order {
		if _, err := tx.InsertRows(ctx, model.TableName, groupColumns[key], groups[key]); err != nil {
			return err
		}
	}
	return nil
}

// recordColumns returns the columns present in record, in table order.
func recordColumns(model *models.Model, record models.Record) []string {
	var columns []string
	for _, name := range model.ColumnNames() {
		if _, ok := record[name]; ok {
			columns = append(columns, name)
		}
	}
	return columns
}

func bindRow(record models.Record, columns []string) []any {
	row := make([]any, len(columns))
	for i, column := range columns {
		row[i] = bindValue(record[column])
	}
	return row
}

// bindValue converts nested JSON values into their text form for json and
// text columns.
func bindValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return v
	}
}

// IsRecordInvalid reports whether err was caused by a record failing model
// validation.
func IsRecordInvalid(err error) bool {
	return errors.Is(err, apperrors.ErrRecordInvalid)
}
