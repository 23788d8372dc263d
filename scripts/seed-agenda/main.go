package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type seedBooking struct {
	Nome     string `json:"nome"`
	Telefone string `json:"telefone"`
	Servico  string `json:"servico"`
	Data     string `json:"data"`
	Hora     string `json:"hora"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/seed-agenda <bookings.json>")
		fmt.Println("Example: go run ./scripts/seed-agenda testdata/sample-agenda.json")
		os.Exit(1)
	}

	apiURL := strings.TrimRight(os.Getenv("API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}
	var bookings []seedBooking
	if err := json.Unmarshal(data, &bookings); err != nil {
		fmt.Printf("Error parsing JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeding %d bookings into %s\n", len(bookings), apiURL)

	client := &http.Client{Timeout: 10 * time.Second}
	created, rejected := 0, 0
	for _, b := range bookings {
		body, _ := json.Marshal(b)
		resp, err := client.Post(apiURL+"/api/agendamentos", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Error posting %s %s: %v\n", b.Data, b.Hora, err)
			os.Exit(1)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
			fmt.Printf("  ok   %s %s %s\n", b.Data, b.Hora, b.Nome)
			continue
		}
		rejected++
		var apiErr struct {
			Erro string `json:"erro"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Erro != "" {
			fmt.Printf("  skip %s %s %s: %s\n", b.Data, b.Hora, b.Nome, apiErr.Erro)
		} else {
			fmt.Printf("  skip %s %s %s: HTTP %d\n", b.Data, b.Hora, b.Nome, resp.StatusCode)
		}
	}

	fmt.Printf("Done: %d created, %d rejected\n", created, rejected)
}
