package statement_test

import (
	"context"
	"fmt"
	"strings"

	"clubcheck/internal/statement"
)

// ExampleCSVReader reads a bank export where one row carries a numeric
// payment reference and the other a free-form message.
func ExampleCSVReader() {
	data := "Päivämäärä;Määrä EUR;Saaja/maksaja;Viite/Viesti;Selite;\n" +
		"01.09.2021;120,00;MEIKÄLÄINEN MATTI;00000 01009;VIITESIIRTO;\n" +
		"3.9.2021;-1 250,50;Urheilukauppa Oy;Pallot;TILISIIRTO;\n"

	reader := statement.NewCSVReader(statement.DefaultColumns(), "utf-8")
	transactions, err := reader.Read(context.Background(), strings.NewReader(data), "syyskuu.csv")
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, t := range transactions {
		ref := "-"
		if r, ok := t.HasReference(); ok {
			ref = fmt.Sprint(r)
		}
		fmt.Printf("%s %s %s %q\n", t.Date.Format("2006-01-02"), t.Amount.StringFixed(2), ref, t.Explanation)
	}
	// Output:
	// 2021-09-01 120.00 1009 ""
	// 2021-09-03 -1250.50 - "Pallot"
}
