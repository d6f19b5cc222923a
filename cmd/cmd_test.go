package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubcheck/internal/config"
)

type fakeRange struct {
	values [][]interface{}
}

func (f *fakeRange) ReadRange(_ context.Context, _ string) ([][]interface{}, error) {
	return f.values, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STATEMENT_ENCODING", "utf-8")
	t.Setenv("STATEMENT_COLUMNS", "reference=Viite")

	cfg, err := loadConfig()
	require.NoError(t, err)
	return cfg
}

func TestLoadTransactionsFromFilesAndSheet(t *testing.T) {
	cfg := testConfig(t)

	path := filepath.Join(t.TempDir(), "tiliote.csv")
	data := "Päivämäärä;Määrä EUR;Saaja/maksaja;Viite\n" +
		"01.03.2021;120,00;Meikäläinen Matti;1009\n" +
		"02.03.2021;-15,50;Kauppa Oy;Ostot\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	sheet := &fakeRange{values: [][]interface{}{
		{"Päivämäärä", "Määrä EUR", "Viite"},
		{"05.03.2021", "60,00", "1009"},
	}}

	transactions, err := loadTransactions(context.Background(), cfg, []string{path}, "", "Tili!A:K", sheet)
	require.NoError(t, err)
	assert.Equal(t, 3, transactions.Len())

	byRef := transactions.FindByReference(1009)
	require.Len(t, byRef, 2)
	assert.Equal(t, "tiliote.csv", byRef[0].Source)
	assert.Equal(t, "Tili!A:K", byRef[1].Source)
	assert.Equal(t, "60", byRef[1].Amount.String())
}

func TestLoadTransactionsErrors(t *testing.T) {
	cfg := testConfig(t)

	_, err := loadTransactions(context.Background(), cfg, []string{filepath.Join(t.TempDir(), "missing.csv")}, "", "", nil)
	assert.Error(t, err)

	cfg.StatementColumns = map[string]string{"iban": "Tilinumero"}
	_, err = loadTransactions(context.Background(), cfg, nil, "", "", nil)
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"payments", "transactions", "fetch", "accounting"} {
		found, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, found.Name())
	}

	flag := paymentsCmd.Flags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, "f", flag.Shorthand)
}

func TestPaymentsRequiresStatement(t *testing.T) {
	paymentsCmd.SetContext(context.Background())
	err := runPayments(paymentsCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--statement-sheet")
}

func TestFetchRejectsUnknownKind(t *testing.T) {
	assert.Error(t, fetchCmd.ValidateArgs([]string{"invoices"}))
	assert.Error(t, fetchCmd.ValidateArgs(nil))
	assert.NoError(t, fetchCmd.ValidateArgs([]string{"groups"}))
	assert.NoError(t, fetchCmd.ValidateArgs([]string{"events"}))
}

func TestAccountingWritesBookings(t *testing.T) {
	testConfig(t)
	dir := t.TempDir()

	statementPath := filepath.Join(dir, "tiliote.csv")
	data := "Päivämäärä;Määrä EUR;Saaja/maksaja;Viite\n" +
		"01.03.2021;120,00;Meikäläinen Matti;1009\n" +
		"02.03.2021;-15,50;Kauppa Oy;Ostot\n"
	require.NoError(t, os.WriteFile(statementPath, []byte(data), 0o600))

	rulesPath := filepath.Join(dir, "tilit.csv")
	rules := "Saaja/maksaja;Suunta;Debet;Kredit\nMeikäläinen Matti;in;101;301\n"
	require.NoError(t, os.WriteFile(rulesPath, []byte(rules), 0o600))

	outputPath := filepath.Join(dir, "kirjanpito.csv")
	accountingCmd.SetContext(context.Background())
	require.NoError(t, accountingCmd.Flags().Set("file", statementPath))
	require.NoError(t, accountingCmd.Flags().Set("output", outputPath))

	err := runAccounting(accountingCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rules")

	require.NoError(t, accountingCmd.Flags().Set("rules", rulesPath))
	err = runAccounting(accountingCmd, nil)
	require.Error(t, err, "Kauppa Oy has no rule")
	assert.Contains(t, err.Error(), "Kauppa Oy")

	require.NoError(t, accountingCmd.Flags().Set("skip-unmatched", "true"))
	require.NoError(t, runAccounting(accountingCmd, nil))

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Päivä;Selite;Saaja/maksaja;Viesti;Summa;Debet;Kredit\n"+
			"01.03.2021;;Meikäläinen Matti;1009;120,00;101;301\n",
		string(written))
}
