// Command docs-server is a minimal documentation provider for local
// development. Point DOCS_BASE_URL at it and the engine will enrich
// resolutions with these pages.
//
// Usage:
//
//	go run ./docs/examples/docs-server
//	DOCS_BASE_URL=http://localhost:9090 ./api
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"
)

// page mirrors the wiki page shape the engine expects.
type page struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Category    string            `json:"category"`
	LastUpdated string            `json:"lastUpdated"`
	URL         string            `json:"url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

var pages = map[string]page{
	"/docs/payments": {
		ID:       "payments",
		Title:    "Paying Through a Link",
		Content:  "Open the link, confirm the amount, and choose a payment method. Receipts are emailed automatically.",
		Category: "payments",
	},
	"/docs/bookings": {
		ID:       "bookings",
		Title:    "Booking an Appointment",
		Content:  "Booking links pre-fill the shop, barber and service. You still pick the time slot in the app.",
		Category: "bookings",
	},
	"/docs/tips": {
		ID:       "tips",
		Title:    "Tipping Your Barber",
		Content:  "Tip links accept a fixed amount or a percentage of the service price.",
		Category: "tips",
	},
	"/docs/navigation": {
		ID:       "navigation",
		Title:    "Opening App Screens",
		Content:  "Navigation links jump straight to a shop, barber, review form, promotion or profile screen.",
		Category: "navigation",
	},
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	now := time.Now().UTC().Format(time.RFC3339)

	http.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		p, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		p.LastUpdated = now
		p.URL = "http://" + r.Host + r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p); err != nil {
			log.Printf("encode %s: %v", r.URL.Path, err)
		}
	})

	log.Printf("docs server listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
