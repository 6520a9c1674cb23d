package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strings"

	"sprint-poker/internal/config"
	"sprint-poker/internal/db"
	"sprint-poker/internal/store"
)

func main() {
	filePath := flag.String("file", "retro.csv", "path to a column,content,author csv; the whole file is imported or none of it")
	sessionID := flag.String("session", "", "retro session ID")
	adminToken := flag.String("token", "", "admin token of the session")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	if *sessionID == "" {
		log.Fatal("-session is required")
	}

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	st := store.New(conn, store.WithTokenCost(cfg.AdminTokenCost))

	ctx := context.Background()
	if err := st.AuthorizeRetro(ctx, *sessionID, *adminToken); err != nil {
		log.Fatalf("authorization failed: %v", err)
	}

	rows, err := readRows(*filePath)
	if err != nil {
		log.Fatalf("failed to read items: %v", err)
	}
	result, err := st.ImportItems(ctx, *sessionID, rows)
	if err != nil {
		log.Fatalf("import failed, nothing was written: %v", err)
	}
	log.Printf("imported %d items, created %d columns", result.ItemsAdded, result.ColumnsCreated)
}

// readRows skips the header line and rows with fewer than two fields.
func readRows(path string) ([]store.ImportRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var rows []store.ImportRow
	for i, record := range records {
		if i == 0 || len(record) < 2 {
			continue
		}
		row := store.ImportRow{
			Column:  strings.TrimSpace(record[0]),
			Content: strings.TrimSpace(record[1]),
		}
		if len(record) > 2 {
			row.Author = strings.TrimSpace(record[2])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
