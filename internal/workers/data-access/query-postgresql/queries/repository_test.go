package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ria-hunter/internal/models"
)

var firmCols = []string{"crd_number", "legal_name", "city", "state", "aum", "private_fund_count", "private_fund_aum"}

func setupMockDB(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

// ==========================
// FilteredSearch
// ==========================

func TestRepository_FilteredSearch_AllFilters(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM ria_profiles p WHERE UPPER\(p.state\) = \$1 AND UPPER\(TRIM\(p.city\)\) = ANY\(\$2\) AND p.aum >= \$3 ORDER BY p.private_fund_count DESC NULLS LAST, p.private_fund_aum DESC NULLS LAST, p.aum DESC NULLS LAST, p.crd_number ASC LIMIT \$4`).
		WithArgs("MO", sqlmock.AnyArg(), 1e9, 5).
		WillReturnRows(sqlmock.NewRows(firmCols).
			AddRow("111", "Gateway Advisers", "ST. LOUIS", "MO", 5e9, 12, 8e8).
			AddRow("222", "Arch Capital", "SAINT LOUIS", "MO", 2e9, 4, 1e8))

	rows, err := repo.FilteredSearch(context.Background(), models.FirmQuery{
		State:  "mo",
		Cities: []string{"SAINT LOUIS", "ST LOUIS"},
		MinAum: models.FloatPtr(1e9),
		SortBy: models.SortByActivity,
		Limit:  5,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "111", rows[0].CRD)
	assert.Equal(t, 12, rows[0].PrivateFundCount)
	assert.Equal(t, "Arch Capital", rows[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FilteredSearch_NoFilters(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM ria_profiles p ORDER BY p.aum DESC NULLS LAST, p.crd_number ASC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(firmCols))

	rows, err := repo.FilteredSearch(context.Background(), models.FirmQuery{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FilteredSearch_CRDRestriction(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`WHERE p.crd_number = ANY\(\$1\) ORDER BY p.aum DESC`).
		WithArgs(sqlmock.AnyArg(), 50).
		WillReturnRows(sqlmock.NewRows(firmCols).AddRow("333", "Vector Partners", "CLAYTON", "MO", 1e8, 0, 0))

	rows, err := repo.FilteredSearch(context.Background(), models.FirmQuery{CRDs: []string{"333", "abc"}, Limit: 50})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FilteredSearch_Error(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM ria_profiles`).WillReturnError(errors.New("connection reset"))

	_, err := repo.FilteredSearch(context.Background(), models.FirmQuery{Limit: 3})
	assert.Error(t, err)
}

// ==========================
// FindByCRD
// ==========================

func TestRepository_FindByCRD(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM ria_profiles p WHERE p.crd_number = \$1`).
		WithArgs(int64(12345678)).
		WillReturnRows(sqlmock.NewRows(firmCols).AddRow("12345678", "Lookup LLC", "DENVER", "CO", 3e8, 1, 2e7))

	row, err := repo.FindByCRD(context.Background(), "12345678")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Lookup LLC", row.Name)

	mock.ExpectQuery(`FROM ria_profiles p WHERE p.crd_number = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(firmCols))

	row, err = repo.FindByCRD(context.Background(), "1")
	require.NoError(t, err)
	assert.Nil(t, row)

	_, err = repo.FindByCRD(context.Background(), "not-a-crd")
	assert.ErrorIs(t, err, ErrMissingParam)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Fund labels and counts
// ==========================

func TestRepository_FirmFundLabels(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`FROM ria_private_funds f JOIN ria_profiles p ON p.crd_number = f.crd_number WHERE UPPER\(p.state\) = \$1\s+GROUP BY f.crd_number, f.fund_type`).
		WithArgs("MO").
		WillReturnRows(sqlmock.NewRows([]string{"crd_number", "fund_type", "count"}).
			AddRow("111", "Venture Capital Fund", 3).
			AddRow("111", "", 1).
			AddRow("222", "Hedge Fund", 2))

	labels, err := repo.FirmFundLabels(context.Background(), models.FirmQuery{State: "MO", Limit: 5})
	require.NoError(t, err)
	require.Len(t, labels, 3)
	assert.Equal(t, models.FirmFundLabel{CRD: "111", Label: "Venture Capital Fund", Count: 3}, labels[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FundTypeCounts(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT COALESCE\(fund_type, ''\), COUNT\(\*\) FROM ria_private_funds GROUP BY fund_type`).
		WillReturnRows(sqlmock.NewRows([]string{"fund_type", "count"}).
			AddRow("Private Equity Fund", 40).
			AddRow("", 7))

	counts, err := repo.FundTypeCounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []models.FundTypeCount{{Label: "Private Equity Fund", Count: 40}, {Label: "", Count: 7}}, counts)

	mock.ExpectQuery(`FROM ria_private_funds WHERE crd_number = ANY\(\$1\) GROUP BY fund_type`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"fund_type", "count"}))

	counts, err = repo.FundTypeCounts(context.Background(), []string{"111"})
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Auxiliary joins
// ==========================

func TestRepository_AuxiliaryJoins(t *testing.T) {
	repo, mock := setupMockDB(t)
	ctx := context.Background()
	crds := []string{"111", "222"}

	mock.ExpectQuery(`FROM narratives WHERE crd_number = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"crd_number", "narrative_text"}).AddRow("111", "Focus on venture."))

	narratives, err := repo.Narratives(ctx, crds)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"111": "Focus on venture."}, narratives)

	mock.ExpectQuery(`FROM control_persons WHERE crd_number = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"crd_number", "person_name", "title"}).
			AddRow("111", "Ada Lovelace", "CEO").
			AddRow("111", "Grace Hopper", "CIO"))

	execs, err := repo.Executives(ctx, crds)
	require.NoError(t, err)
	assert.Equal(t, []models.Executive{{Name: "Ada Lovelace", Title: "CEO"}, {Name: "Grace Hopper", Title: "CIO"}}, execs["111"])
	assert.Empty(t, execs["222"])

	mock.ExpectQuery(`FROM ria_private_funds WHERE crd_number = ANY\(\$1\) ORDER BY crd_number, gross_asset_value DESC`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"crd_number", "fund_name", "fund_type", "gross_asset_value"}).
			AddRow("222", "Arch Growth III", "Private Equity Fund", 2.5e8).
			AddRow("222", "Arch Misc", "", 1e6))

	funds, err := repo.Funds(ctx, crds)
	require.NoError(t, err)
	require.Len(t, funds["222"], 2)
	assert.Equal(t, models.FundTypePE, funds["222"][0].Type)
	assert.Equal(t, models.FundTypeOther, funds["222"][1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AuxiliaryJoins_EmptyInput(t *testing.T) {
	repo, mock := setupMockDB(t)
	ctx := context.Background()

	n, err := repo.Narratives(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, n)
	e, err := repo.Executives(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, e)
	f, err := repo.Funds(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, f)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCRDArray(t *testing.T) {
	assert.Equal(t, []int64{12, 34}, []int64(crdArray([]string{"12", " 34 ", "x1"})))
}
