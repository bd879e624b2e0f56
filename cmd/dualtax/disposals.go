package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dualtax/tax-engine/internal/domain"
	"github.com/dualtax/tax-engine/internal/lots"
	"github.com/dualtax/tax-engine/internal/output"
	moneypkg "github.com/dualtax/tax-engine/pkg/decimal"
)

// eventsFile is the YAML schema of a purchase/sale event file. Events are
// replayed in file order; purchases open lots, sales consume them FIFO.
type eventsFile struct {
	Events []event `yaml:"events" validate:"required,min=1,dive"`
}

type event struct {
	Type      string `yaml:"type" validate:"required,oneof=purchase sale"`
	Holding   string `yaml:"holding" validate:"required"`
	Date      string `yaml:"date" validate:"required,datetime=2006-01-02"`
	Quantity  string `yaml:"quantity" validate:"required"`
	UnitPrice string `yaml:"unit_price" validate:"required"`
	Currency  string `yaml:"currency" validate:"required,oneof=GBP ZAR"`
	FXRate    string `yaml:"fx_rate" validate:"required"`
}

func newDisposalsCmd() *cobra.Command {
	var eventFile string
	cmd := &cobra.Command{
		Use:   "disposals",
		Short: "Replay a purchase/sale event file through the FIFO lot ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(eventFile)
			if err != nil {
				return fmt.Errorf("failed to read event file %s: %w", eventFile, err)
			}
			var file eventsFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse event file %s: %w", eventFile, err)
			}
			if err := validator.New().Struct(&file); err != nil {
				return fmt.Errorf("event file %s failed validation: %w", eventFile, err)
			}

			ledger := lots.NewLedger(nil)
			for i, ev := range file.Events {
				if err := replayEvent(cmd, ledger, ev); err != nil {
					return fmt.Errorf("event %d (%s %s): %w", i, ev.Type, ev.Holding, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&eventFile, "file", "", "YAML event file of purchases and sales")
	cmd.MarkFlagRequired("file")
	return cmd
}

func replayEvent(cmd *cobra.Command, ledger *lots.Ledger, ev event) error {
	date, err := time.Parse("2006-01-02", ev.Date)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	quantity, err := decimal.NewFromString(ev.Quantity)
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	unitPrice, err := moneypkg.NewFromString(ev.UnitPrice)
	if err != nil {
		return fmt.Errorf("unit_price: %w", err)
	}
	fxRate, err := decimal.NewFromString(ev.FXRate)
	if err != nil {
		return fmt.Errorf("fx_rate: %w", err)
	}
	currency := domain.Currency(ev.Currency)

	if ev.Type == "purchase" {
		_, err := ledger.AddPurchase(ev.Holding, date, quantity, unitPrice, currency, fxRate)
		return err
	}

	summary, err := ledger.RecordDisposal(cmd.Context(), domain.Disposal{
		HoldingID:    ev.Holding,
		Quantity:     quantity,
		SalePrice:    unitPrice,
		SaleCurrency: currency,
		SaleDate:     date,
		FXRateAtSale: fxRate,
	})
	if err != nil {
		return err
	}
	return emit(cmd, summary, output.FormatRealizedGains(summary))
}
