// internal/workers/data-access/query-postgresql/queries/repository.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"ria-hunter/internal/common/fundtype"
	"ria-hunter/internal/models"
)

// Repository runs the typed adviser queries against ria_profiles and its
// satellite tables (narratives, control_persons, ria_private_funds).
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const firmColumns = `p.crd_number::text, COALESCE(p.legal_name, ''), COALESCE(p.city, ''), COALESCE(p.state, ''),
       COALESCE(p.aum, 0), COALESCE(p.private_fund_count, 0), COALESCE(p.private_fund_aum, 0)`

// whereClause renders the FirmQuery filters against alias p, numbering
// placeholders from 1.
func whereClause(q models.FirmQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.State != "" {
		conds = append(conds, "UPPER(p.state) = "+next(strings.ToUpper(q.State)))
	}
	if len(q.Cities) > 0 {
		conds = append(conds, "UPPER(TRIM(p.city)) = ANY("+next(pq.Array(q.Cities))+")")
	}
	if q.MinAum != nil {
		conds = append(conds, "p.aum >= "+next(*q.MinAum))
	}
	if len(q.CRDs) > 0 {
		conds = append(conds, "p.crd_number = ANY("+next(crdArray(q.CRDs))+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sortBy models.SortKey) string {
	if sortBy == models.SortByActivity {
		return " ORDER BY p.private_fund_count DESC NULLS LAST, p.private_fund_aum DESC NULLS LAST, p.aum DESC NULLS LAST, p.crd_number ASC"
	}
	return " ORDER BY p.aum DESC NULLS LAST, p.crd_number ASC"
}

// crdArray keeps the numeric identifiers; anything else cannot match.
func crdArray(crds []string) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(crds))
	for _, c := range crds {
		if n, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// FilteredSearch returns firm rows matching q, ordered by q.SortBy.
func (r *Repository) FilteredSearch(ctx context.Context, q models.FirmQuery) ([]models.FirmRow, error) {
	where, args := whereClause(q)
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	query := "SELECT " + firmColumns + " FROM ria_profiles p" + where + orderClause(q.SortBy) +
		" LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FirmRow
	for rows.Next() {
		var f models.FirmRow
		if err := rows.Scan(&f.CRD, &f.Name, &f.City, &f.State, &f.Aum, &f.PrivateFundCount, &f.PrivateFundAum); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FindByCRD returns the firm with the given identifier, or nil when absent.
func (r *Repository) FindByCRD(ctx context.Context, crd string) (*models.FirmRow, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(crd), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: crd %q", ErrMissingParam, crd)
	}

	var f models.FirmRow
	err = r.db.QueryRowContext(ctx, "SELECT "+firmColumns+" FROM ria_profiles p WHERE p.crd_number = $1", n).
		Scan(&f.CRD, &f.Name, &f.City, &f.State, &f.Aum, &f.PrivateFundCount, &f.PrivateFundAum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FirmFundLabels groups the private funds of firms matching q by raw label.
// q.Limit and q.SortBy are ignored.
func (r *Repository) FirmFundLabels(ctx context.Context, q models.FirmQuery) ([]models.FirmFundLabel, error) {
	where, args := whereClause(q)
	query := `SELECT f.crd_number::text, COALESCE(f.fund_type, ''), COUNT(*)
FROM ria_private_funds f JOIN ria_profiles p ON p.crd_number = f.crd_number` + where + `
GROUP BY f.crd_number, f.fund_type`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FirmFundLabel
	for rows.Next() {
		var l models.FirmFundLabel
		if err := rows.Scan(&l.CRD, &l.Label, &l.Count); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// FundTypeCounts is a group-by-count over raw fund labels. With crds set
// only those firms are counted.
func (r *Repository) FundTypeCounts(ctx context.Context, crds []string) ([]models.FundTypeCount, error) {
	query := "SELECT COALESCE(fund_type, ''), COUNT(*) FROM ria_private_funds"
	var args []interface{}
	if len(crds) > 0 {
		query += " WHERE crd_number = ANY($1)"
		args = append(args, crdArray(crds))
	}
	query += " GROUP BY fund_type ORDER BY COUNT(*) DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FundTypeCount
	for rows.Next() {
		var c models.FundTypeCount
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Narratives returns the first narrative per firm.
func (r *Repository) Narratives(ctx context.Context, crds []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(crds) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT ON (crd_number) crd_number::text, COALESCE(narrative_text, '')
FROM narratives WHERE crd_number = ANY($1) ORDER BY crd_number, id`, crdArray(crds))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var crd, text string
		if err := rows.Scan(&crd, &text); err != nil {
			return nil, err
		}
		out[crd] = text
	}
	return out, rows.Err()
}

// Executives returns control persons per firm ordered by name.
func (r *Repository) Executives(ctx context.Context, crds []string) (map[string][]models.Executive, error) {
	out := make(map[string][]models.Executive)
	if len(crds) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT crd_number::text, COALESCE(person_name, ''), COALESCE(title, '')
FROM control_persons WHERE crd_number = ANY($1) ORDER BY crd_number, person_name`, crdArray(crds))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var crd string
		var e models.Executive
		if err := rows.Scan(&crd, &e.Name, &e.Title); err != nil {
			return nil, err
		}
		out[crd] = append(out[crd], e)
	}
	return out, rows.Err()
}

// Funds returns private funds per firm, largest first, with the raw label
// classified into the canonical taxonomy.
func (r *Repository) Funds(ctx context.Context, crds []string) (map[string][]models.Fund, error) {
	out := make(map[string][]models.Fund)
	if len(crds) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT crd_number::text, COALESCE(fund_name, ''), COALESCE(fund_type, ''), COALESCE(gross_asset_value, 0)
FROM ria_private_funds WHERE crd_number = ANY($1) ORDER BY crd_number, gross_asset_value DESC NULLS LAST, fund_name`, crdArray(crds))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var crd, label string
		var f models.Fund
		if err := rows.Scan(&crd, &f.Name, &label, &f.Aum); err != nil {
			return nil, err
		}
		f.Type = fundtype.Classify(fundtype.BucketLabel(label))
		out[crd] = append(out[crd], f)
	}
	return out, rows.Err()
}
