package priceprovider

import (
	"database/sql"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/backsim/internal/datasource"
	"github.com/rxtech-lab/backsim/internal/logger"
	"github.com/rxtech-lab/backsim/internal/types"
	"github.com/rxtech-lab/backsim/internal/version"
	"github.com/rxtech-lab/backsim/pkg/errors"
	"go.uber.org/zap"
)

const (
	metaKeySchemaVersion = "schema_version"
	metaKeyWindowStart   = "window_start"
	metaKeyWindowEnd     = "window_end"
)

// CacheStore persists a provider's fetched price and return history in a
// DuckDB file. One file holds exactly one simulation window; a lookup with a
// different window is a miss, never a partial hit.
type CacheStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewCacheStore(path string, logger *logger.Logger) (*CacheStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheLoadFailed, err, "failed to open cache file %s", path)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (key VARCHAR PRIMARY KEY, value VARCHAR);
		CREATE TABLE IF NOT EXISTS prices (symbol VARCHAR, day TIMESTAMP, value DOUBLE);
		CREATE TABLE IF NOT EXISTS period_returns (symbol VARCHAR, day TIMESTAMP, value DOUBLE);
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheLoadFailed, err, "failed to create cache tables")
	}

	return &CacheStore{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (s *CacheStore) Close() error {
	return s.db.Close()
}

// Load returns the cached tables when the file covers exactly the requested
// window and was written with a compatible schema. An empty or mismatched
// file reports ok=false without error so the caller falls through to a fetch.
func (s *CacheStore) Load(start, end time.Time) (prices, returns datasource.Table, symbols []string, ok bool, err error) {
	meta, err := s.readMeta()
	if err != nil {
		return nil, nil, nil, false, err
	}

	schema, found := meta[metaKeySchemaVersion]
	if !found {
		return nil, nil, nil, false, nil
	}

	if err := version.CheckSchemaCompatibility(version.CacheSchemaVersion, schema); err != nil {
		s.logger.Warn("discarding incompatible price cache", zap.Error(err))

		return nil, nil, nil, false, nil
	}

	if meta[metaKeyWindowStart] != types.Day(start).Format(types.DateLayout) ||
		meta[metaKeyWindowEnd] != types.Day(end).Format(types.DateLayout) {
		s.logger.Debug("price cache covers a different window, refetching",
			zap.String("cached_start", meta[metaKeyWindowStart]),
			zap.String("cached_end", meta[metaKeyWindowEnd]))

		return nil, nil, nil, false, nil
	}

	prices, err = s.readTable("prices")
	if err != nil {
		return nil, nil, nil, false, err
	}

	returns, err = s.readTable("period_returns")
	if err != nil {
		return nil, nil, nil, false, err
	}

	symbolSet := make(map[string]struct{})
	for symbol := range prices {
		symbolSet[symbol] = struct{}{}
	}

	for symbol := range returns {
		symbolSet[symbol] = struct{}{}
	}

	for symbol := range symbolSet {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return prices, returns, symbols, true, nil
}

// Save replaces the file's contents with the given tables keyed by the window.
func (s *CacheStore) Save(start, end time.Time, prices, returns datasource.Table) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeCacheWriteFailed, err, "failed to begin cache transaction")
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(`DELETE FROM meta; DELETE FROM prices; DELETE FROM period_returns;`); err != nil {
		return errors.Wrap(errors.ErrCodeCacheWriteFailed, err, "failed to clear cache tables")
	}

	meta := map[string]string{
		metaKeySchemaVersion: version.CacheSchemaVersion,
		metaKeyWindowStart:   types.Day(start).Format(types.DateLayout),
		metaKeyWindowEnd:     types.Day(end).Format(types.DateLayout),
	}

	for key, value := range meta {
		query, args, err := s.sq.Insert("meta").Columns("key", "value").Values(key, value).ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeCacheWriteFailed, err, "failed to build meta insert")
		}

		if _, err := tx.Exec(query, args...); err != nil {
			return errors.Wrap(errors.ErrCodeCacheWriteFailed, err, "failed to write cache meta")
		}
	}

	if err := s.writeTable(tx, "prices", prices); err != nil {
		return err
	}

	if err := s.writeTable(tx, "period_returns", returns); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeCacheWriteFailed, err, "failed to commit cache transaction")
	}

	return nil
}

func (s *CacheStore) readMeta() (map[string]string, error) {
	query, _, err := s.sq.Select("key", "value").From("meta").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheLoadFailed, err, "failed to build meta query")
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheLoadFailed, err, "failed to read cache meta")
	}
	defer rows.Close()

	meta := make(map[string]string)

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCacheLoadFailed, err, "failed to scan cache meta row")
		}

		meta[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCacheLoadFailed, err, "failed to iterate cache meta")
	}

	return meta, nil
}

func (s *CacheStore) readTable(table string) (datasource.Table, error) {
	query, _, err := s.sq.Select("symbol", "day", "value").From(table).ToSql()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheLoadFailed, err, "failed to build %s query", table)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheLoadFailed, err, "failed to read cached %s", table)
	}
	defer rows.Close()

	result := make(datasource.Table)

	for rows.Next() {
		var (
			symbol string
			day    time.Time
			value  float64
		)

		if err := rows.Scan(&symbol, &day, &value); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeCacheLoadFailed, err, "failed to scan cached %s row", table)
		}

		result.Set(symbol, day.UTC(), value)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheLoadFailed, err, "failed to iterate cached %s", table)
	}

	return result, nil
}

func (s *CacheStore) writeTable(tx *sql.Tx, table string, data datasource.Table) error {
	for symbol, column := range data {
		for day, value := range column {
			query, args, err := s.sq.Insert(table).
				Columns("symbol", "day", "value").
				Values(symbol, day, value).
				ToSql()
			if err != nil {
				return errors.Wrapf(errors.ErrCodeCacheWriteFailed, err, "failed to build %s insert", table)
			}

			if _, err := tx.Exec(query, args...); err != nil {
				return errors.Wrapf(errors.ErrCodeCacheWriteFailed, err, "failed to write cached %s", table)
			}
		}
	}

	return nil
}
