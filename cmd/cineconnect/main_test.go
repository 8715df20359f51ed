package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cineconnect/cineconnect/internal/app"
	"github.com/cineconnect/cineconnect/internal/salesreport"
	_ "github.com/cineconnect/cineconnect/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	require.Equal(t, "1", os.Getenv("CINECONNECT_TEST_MODE"))
	app.RefreshTestMode()
	require.True(t, app.InTestMode())
	main()
}

func TestNewGeneratorAppliesReportConfig(t *testing.T) {
	cfg := &app.Config{ReportLocale: "es-GT", ReportCurrency: "Q", ReportBrand: "CINE CONNECT"}
	gen := newGenerator(cfg, nil, nil)
	doc, err := gen.Layout(salesreport.ReportData{}, "daily")
	require.NoError(t, err)
	require.Equal(t, "CINE CONNECT", doc.Pages()[0].Find("header.brand")[0].Text)
}
