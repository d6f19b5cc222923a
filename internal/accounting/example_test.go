package accounting_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"clubcheck/internal/accounting"
	"clubcheck/pkg/models"
)

func ExampleJournal_Book() {
	rules, err := accounting.LoadRules(strings.NewReader(
		"Saaja/maksaja;Selite;Suunta;Debet;Kredit\n" +
			"FUMAX OY KÄPYLÄN JALKAPALLOHALLI;;out;103;101\n" +
			";VIITESIIRTO;in;101;301\n"))
	if err != nil {
		fmt.Println(err)
		return
	}

	transactions := []*models.Transaction{
		{
			ID:        "1",
			Date:      time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC),
			Amount:    decimal.RequireFromString("120"),
			Payee:     "MEIKÄLÄINEN MATTI",
			RawType:   "VIITESIIRTO",
			Reference: models.Ref(1009),
		},
		{
			ID:          "2",
			Date:        time.Date(2021, 9, 3, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.RequireFromString("-850"),
			Payee:       "FUMAX OY KÄPYLÄN JALKAPALLOHALLI",
			RawType:     "TILISIIRTO",
			Explanation: "Kenttävuokra syyskuu",
		},
	}

	entries, err := accounting.NewJournal(rules).Book(context.Background(), transactions)
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := accounting.WriteCSV(os.Stdout, entries); err != nil {
		fmt.Println(err)
	}
	// Output:
	// Päivä;Selite;Saaja/maksaja;Viesti;Summa;Debet;Kredit
	// 01.09.2021;VIITESIIRTO;MEIKÄLÄINEN MATTI;1009;120,00;101;301
	// 03.09.2021;TILISIIRTO;FUMAX OY KÄPYLÄN JALKAPALLOHALLI;Kenttävuokra syyskuu;850,00;103;101
}
