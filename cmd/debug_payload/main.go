package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"ecomm-sync/core/config"
	"ecomm-sync/core/database"
	"ecomm-sync/feature/ecommerce"
)

// debug_payload prints the order payload a staged transaction would produce,
// without calling the CRM. The record is treated as a create for a
// placeholder customer.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <transaction-id>", os.Args[0])
	}
	txID := os.Args[1]

	// Load config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	// Connect to DB
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}

	store := ecommerce.NewStore(db)
	ctx := context.Background()

	fmt.Println("=== Staged record ===")
	rec, err := store.Get(ctx, txID)
	if err != nil {
		log.Fatal(err)
	}
	printJSON(rec)

	if err := rec.Validate(); err != nil {
		fmt.Printf("Record would fail validation: %v\n", err)
	}

	fmt.Println("\n=== Line items ===")
	items, err := store.LineItems(ctx, rec.TransactionID, rec.OrderID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Total line items: %d\n", len(items))
	for _, item := range items {
		fmt.Printf("  %s (%s) x%d @ %s\n", item.BuyerTypeCode, item.BuyerTypeDesc, item.Quantity, item.UnitPrice)
	}

	fmt.Println("\n=== Order payload (create) ===")
	resolver := ecommerce.NewOrderResolver(nil, cfg.Sync.OrderSource, cfg.Sync.Currency, nil)
	payload, err := resolver.Build(rec, items, cfg.CRM.ConnectionID, "<customer>", ecommerce.OrderLookup{})
	if err != nil {
		log.Fatal(err)
	}
	printJSON(payload)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}
