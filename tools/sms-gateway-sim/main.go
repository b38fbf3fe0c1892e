// Command sms-gateway-sim is a local stand-in for an SMS gateway. Point the
// notification service at it with SMS_PROVIDER=webhook and
// SMS_WEBHOOK_URL=http://localhost:9090/sms to see outbound messages.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	var (
		addr  = flag.String("addr", getenv("ADDR", ":9090"), "listen address")
		token = flag.String("token", getenv("SMS_WEBHOOK_TOKEN", ""), "expected bearer token (empty disables the check)")
		fail  = flag.String("fail-suffix", getenv("FAIL_SUFFIX", ""), "reject messages whose recipient ends with this suffix")
	)
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/sms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if *token != "" && r.Header.Get("Authorization") != "Bearer "+*token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var payload struct {
			To   string `json:"to"`
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if *fail != "" && strings.HasSuffix(payload.To, *fail) {
			fmt.Printf("%s REJECTED to=%s body=%q\n", time.Now().UTC().Format(time.RFC3339), payload.To, payload.Body)
			http.Error(w, "simulated gateway failure", http.StatusBadGateway)
			return
		}

		fmt.Printf("%s SENT to=%s body=%q\n", time.Now().UTC().Format(time.RFC3339), payload.To, payload.Body)
		w.WriteHeader(http.StatusAccepted)
	})

	fmt.Printf("sms gateway simulator listening on %s\n", *addr)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		fatal(err.Error())
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
