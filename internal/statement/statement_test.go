package statement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleCSV = `Kirjauspäivä;Arvopäivä;Päivämäärä;Määrä EUR;Laji;Selite;Saaja/maksaja;Saajan tilinumero;Viite/Viesti;
01.03.2021;01.03.2021;01.03.2021;+120,00;710;VIITESIIRTO;MEIKÄLÄINEN MATTI;FI1234;00000 01009;
02.03.2021;02.03.2021;02.03.2021;-1 234,50;106;TILISIIRTO;FUMAX OY KÄPYLÄN JALKAPALLOHALLI;FI9876;Kenttävuokra maaliskuu;

03.03.2021;03.03.2021;huono;10,00;710;VIITESIIRTO;X;;1234;
4.3.2021;04.03.2021;4.3.2021;55;710;VIITESIIRTO;Y;;;
`

func latin1(t *testing.T, s string) string {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return out
}

func TestCSVReaderLatin1(t *testing.T) {
	r := NewCSVReader(DefaultColumns(), "latin1")

	got, err := r.Read(context.Background(), strings.NewReader(latin1(t, sampleCSV)), "tili.csv")
	require.NoError(t, err)
	require.Len(t, got, 3)

	first := got[0]
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(120)))
	require.NotNil(t, first.Reference)
	assert.Equal(t, int64(1009), *first.Reference)
	assert.Empty(t, first.Explanation)
	assert.Equal(t, "MEIKÄLÄINEN MATTI", first.Payee)
	assert.Equal(t, "VIITESIIRTO", first.RawType)
	assert.Equal(t, "tili.csv", first.Source)
	assert.NotEmpty(t, first.ID)

	second := got[1]
	assert.True(t, second.Amount.Equal(decimal.RequireFromString("-1234.50")))
	assert.Nil(t, second.Reference)
	assert.Equal(t, "Kenttävuokra maaliskuu", second.Explanation)

	third := got[2]
	assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), third.Date)
	assert.Nil(t, third.Reference)
	assert.Empty(t, third.Explanation)
}

func TestParseRowError(t *testing.T) {
	columns := DefaultColumns()
	idx, err := columns.index([]string{"Päivämäärä", "Määrä EUR", "Viite/Viesti"})
	require.NoError(t, err)

	_, err = columns.parseRow([]string{"huono", "10,00", "1234"}, idx, 4)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Row)
	assert.Equal(t, "Päivämäärä", pe.Column)
	assert.Equal(t, "huono", pe.Value)

	_, err = columns.parseRow([]string{"03.03.2021", "kymmenen", "1234"}, idx, 5)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Määrä EUR", pe.Column)
}

func TestCSVReaderUTF8WithOverrides(t *testing.T) {
	columns, err := DefaultColumns().WithOverrides(map[string]string{
		"date":      "Kirjauspäivä",
		"amount":    "Summa",
		"reference": "Viite",
	})
	require.NoError(t, err)

	data := "\ufeffKirjauspäivä;Summa;Viite\n2021-05-02;75,5;4321\n"
	got, err := NewCSVReader(columns, "utf-8").Read(context.Background(), strings.NewReader(data), "x.csv")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("75.5")))
	assert.Equal(t, int64(4321), *got[0].Reference)
	assert.Empty(t, got[0].Payee)
}

func TestCSVReaderErrors(t *testing.T) {
	r := NewCSVReader(DefaultColumns(), "utf-8")

	_, err := r.Read(context.Background(), strings.NewReader(""), "empty.csv")
	assert.True(t, errors.Is(err, ErrEmptyStatement))

	_, err = r.Read(context.Background(), strings.NewReader("Päivämäärä;Määrä EUR\n"), "nocol.csv")
	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Viite/Viesti", missing.Column)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Read(ctx, strings.NewReader(sampleCSV), "cancel.csv")
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = NewCSVReader(DefaultColumns(), "ebcdic").Read(context.Background(), strings.NewReader(sampleCSV), "x")
	assert.Error(t, err)

	_, err = DefaultColumns().WithOverrides(map[string]string{"colour": "Väri"})
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"120,00", "120", false},
		{"+50,25", "50.25", false},
		{"-1 234,50", "-1234.5", false},
		{"1.234,56", "1234.56", false},
		{"1\u00a0000,00", "1000", false},
		{"\u221210,00", "-10", false},
		{"99.95", "99.95", false},
		{"12 €", "12", false},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"05.03.2021", "5.3.2021", "05.03.21", "2021-03-05", "20210305"} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), got, in)
	}
	_, err := parseDate("March 5th")
	assert.Error(t, err)
}

func TestParseReference(t *testing.T) {
	ref, expl := parseReference("00000 01009")
	require.NotNil(t, ref)
	assert.Equal(t, int64(1009), *ref)
	assert.Empty(t, expl)

	ref, expl = parseReference("RF18 1234")
	assert.Nil(t, ref)
	assert.Equal(t, "RF18 1234", expl)

	ref, expl = parseReference("-12")
	assert.Nil(t, ref)
	assert.Equal(t, "-12", expl)

	ref, expl = parseReference("  ")
	assert.Nil(t, ref)
	assert.Empty(t, expl)
}

func TestFromOFX(t *testing.T) {
	var credit, debit ofxgo.Amount
	credit.SetString("120.00")
	debit.SetString("-35.5")

	trns := []ofxgo.Transaction{
		{
			TrnType:  ofxgo.TrnTypeCredit,
			DtPosted: ofxgo.Date{Time: time.Date(2021, 3, 2, 12, 0, 0, 0, time.UTC)},
			TrnAmt:   credit,
			FiTID:    "FIT-1",
			RefNum:   "1009",
			Name:     "MEIKALAINEN MATTI",
		},
		{
			TrnType:  ofxgo.TrnTypeDebit,
			DtPosted: ofxgo.Date{Time: time.Date(2021, 3, 3, 0, 0, 0, 0, time.UTC)},
			TrnAmt:   debit,
			Memo:     "Kenttavuokra",
			Payee:    &ofxgo.Payee{Name: "FUMAX OY"},
		},
	}

	got, err := fromOFX(trns, "tili.ofx")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "FIT-1", got[0].ID)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, int64(1009), *got[0].Reference)
	assert.Equal(t, "MEIKALAINEN MATTI", got[0].Payee)
	assert.Equal(t, "CREDIT", got[0].RawType)

	assert.NotEmpty(t, got[1].ID)
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("-35.5")))
	assert.Nil(t, got[1].Reference)
	assert.Equal(t, "Kenttavuokra", got[1].Explanation)
	assert.Equal(t, "FUMAX OY", got[1].Payee)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path, format, want string
		wantErr            bool
	}{
		{"tili.csv", "", FormatCSV, false},
		{"tili.OFX", "", FormatOFX, false},
		{"tili.qfx", "", FormatOFX, false},
		{"tili.txt", "", FormatCSV, false},
		{"tili.csv", "OFX", FormatOFX, false},
		{"tili.csv", "xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path, tt.format)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrUnknownFormat))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLoaderLoadStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maaliskuu.csv")
	require.NoError(t, os.WriteFile(path, []byte(latin1(t, sampleCSV)), 0o600))

	loader := NewLoader(NewCSVReader(DefaultColumns(), "latin1"))
	transactions, err := loader.LoadStore(context.Background(), []string{path}, "")
	require.NoError(t, err)

	assert.Equal(t, 3, transactions.Len())
	found := transactions.FindByReference(1009)
	require.Len(t, found, 1)
	assert.Equal(t, "maaliskuu.csv", found[0].Source)

	_, err = loader.Load(context.Background(), filepath.Join(dir, "missing.csv"), "")
	assert.Error(t, err)
}

var _ Reader = (*CSVReader)(nil)
var _ Reader = (*OFXReader)(nil)

type fakeRange struct {
	values [][]interface{}
	err    error
	asked  string
}

func (f *fakeRange) ReadRange(_ context.Context, rangeSpec string) ([][]interface{}, error) {
	f.asked = rangeSpec
	return f.values, f.err
}

func TestSheetReader(t *testing.T) {
	source := &fakeRange{values: [][]interface{}{
		{"Päivämäärä", "Määrä EUR", "Saaja/maksaja", "Viite/Viesti"},
		{"01.03.2021", "120,00", "MEIKÄLÄINEN MATTI", "1009"},
		{},
		{"rikki", "1,00", "X", "1"},
		{"02.03.2021", -35.5, nil, "Kenttävuokra"},
	}}

	got, err := NewSheetReader(source, DefaultColumns()).Read(context.Background(), "Tili!A:K")
	require.NoError(t, err)
	assert.Equal(t, "Tili!A:K", source.asked)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1009), *got[0].Reference)
	assert.Equal(t, "MEIKÄLÄINEN MATTI", got[0].Payee)
	assert.Equal(t, "Tili!A:K", got[0].Source)

	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("-35.5")))
	assert.Empty(t, got[1].Payee)
	assert.Equal(t, "Kenttävuokra", got[1].Explanation)
}

func TestSheetReaderErrors(t *testing.T) {
	_, err := NewSheetReader(&fakeRange{}, DefaultColumns()).Read(context.Background(), "Tili!A:K")
	assert.True(t, errors.Is(err, ErrEmptyStatement))

	boom := errors.New("permission denied")
	_, err = NewSheetReader(&fakeRange{err: boom}, DefaultColumns()).Read(context.Background(), "Tili!A:K")
	assert.True(t, errors.Is(err, boom))

	_, err = NewSheetReader(&fakeRange{values: [][]interface{}{{"Päivämäärä"}}}, DefaultColumns()).Read(context.Background(), "Tili!A:K")
	var missing *MissingColumnError
	assert.True(t, errors.As(err, &missing))
}
