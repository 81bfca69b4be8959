package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	zapcard "github.com/NEARBuilders/zapcard"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	denomination := flag.Int("denomination", 50, "Card denomination in USD (10, 25, 50, 100, 200)")
	method := flag.String("method", "usdc_base", "Payment method (btc, eth, usdc_base, usdc_near, usdt_tron)")
	country := flag.String("country", "", "Country code for the synthetic identity (overrides config)")
	firstName := flag.String("first-name", "", "First name (synthesized when empty)")
	lastName := flag.String("last-name", "", "Last name (synthesized when empty)")
	headless := flag.Bool("headless", true, "Run the browser headless")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	config, err := zapcard.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	config.Headless = *headless
	if *country != "" {
		config.Country = *country
	}
	if *debug {
		config.LogLevel = "debug"
	}

	logger := zapcard.NewLogger(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider := zapcard.NewRodProvider(logger)
	orchestrator := zapcard.NewOrchestrator(config, provider, logger)

	result := orchestrator.InitiatePurchase(ctx, zapcard.PurchaseOptions{
		Denomination:  zapcard.Denomination(*denomination),
		PaymentMethod: zapcard.PaymentMethod(*method),
		FirstName:     *firstName,
		LastName:      *lastName,
	})

	if result.Status != zapcard.StatusAwaitingPayment {
		logger.Error().Str("error", result.Error).Msg("purchase failed")
		os.Exit(1)
	}

	info := result.DepositInfo
	fmt.Println()
	fmt.Println("Deposit details — send the payment to complete the purchase:")
	fmt.Printf("  Address: %s\n", info.Address)
	fmt.Printf("  Amount:  %s\n", info.Amount)
	fmt.Printf("  Method:  %s\n", info.PaymentMethod)
	if info.QRCode != "" {
		fmt.Printf("  QR:      %s\n", info.QRCode)
	}
}
