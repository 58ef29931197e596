// Command mock-tools runs a deterministic tool service for demos and
// local pipeline testing. It serves a small record store and canned
// statistical results behind the POST /{tool} contract the executor
// speaks.
//
// Configuration:
//
//	MOCK_TOOLS_PORT - Listen port (default: 9091)
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_TOOLS_PORT")
	if port == "" {
		port = "9091"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /lookup_record", handleLookupRecord)
	mux.HandleFunc("POST /search_records", handleSearchRecords)
	mux.HandleFunc("POST /run_ttest", handleTTest)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock tool service starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock tool service failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock tool service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// --- Record store ---

type record struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Owner       string  `json:"owner"`
	Amount      float64 `json:"amount"`
	CreatedAt   string  `json:"created_at"`
	Description string  `json:"description"`
}

var records = []record{
	{ID: "A1", Name: "Acme GmbH", Status: "active", Owner: "mbeck", Amount: 125000, CreatedAt: "2023-06-12T09:30:00Z", Description: "Long-standing manufacturing customer with three open orders."},
	{ID: "B2", Name: "Widget AG", Status: "active", Owner: "sfrey", Amount: 48000, CreatedAt: "2024-01-20T14:00:00Z", Description: "Mid-size reseller, quarterly billing."},
	{ID: "C3", Name: "Nordlicht KG", Status: "dormant", Owner: "mbeck", Amount: 9100, CreatedAt: "2022-11-03T11:15:00Z", Description: "Dormant account, last order two years ago."},
}

func handleLookupRecord(w http.ResponseWriter, r *http.Request) {
	var params struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeFailure(w, "invalid parameters: "+err.Error())
		return
	}

	for _, rec := range records {
		if strings.EqualFold(rec.ID, params.ID) {
			writeSuccess(w, map[string]any{
				"records": []record{rec},
				"total":   1,
			})
			return
		}
	}
	writeFailure(w, "no record with id "+params.ID)
}

func handleSearchRecords(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Query string `json:"query"`
		Q     string `json:"q"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeFailure(w, "invalid parameters: "+err.Error())
		return
	}
	query := params.Query
	if query == "" {
		query = params.Q
	}
	query = strings.ToLower(query)

	var matches []record
	for _, rec := range records {
		if query == "" ||
			strings.Contains(strings.ToLower(rec.Name), query) ||
			strings.Contains(strings.ToLower(rec.Description), query) ||
			strings.EqualFold(rec.Owner, query) {
			matches = append(matches, rec)
		}
	}

	writeSuccess(w, map[string]any{
		"records":           matches,
		"total":             len(records),
		"analysis_guidance": "Amounts are yearly contract values in EUR.",
	})
}

func handleTTest(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Variable string `json:"variable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeFailure(w, "invalid parameters: "+err.Error())
		return
	}
	variable := params.Variable
	if variable == "" {
		variable = "amount"
	}

	writeSuccess(w, map[string]any{
		"tests": []map[string]any{
			{
				"test":      "two-sample t-test on " + variable,
				"variable":  variable,
				"n":         3,
				"statistic": 2.41,
				"df":        2,
				"p_value":   0.042,
			},
		},
	})
}

// --- Envelope helpers ---

func writeSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeFailure(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}
