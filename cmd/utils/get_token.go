// Command get_token walks an operator through the OAuth consent for the export
// mailbox and prints the refresh token to put in GMAIL_REFRESH_TOKEN.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"crewsync-service/internal/infrastructure/oauth"
	"crewsync-service/pkg/logger"
)

func main() {
	godotenv.Load()

	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET must be set")
	}
	addr := os.Getenv("OAUTH_CALLBACK_ADDR")
	if addr == "" {
		addr = "localhost:8090"
	}

	appLogger := logger.NewLogger()
	auth := oauth.NewGmailOAuth(clientID, clientSecret, "", "http://"+addr+"/oauth2callback", appLogger)

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate state: %v", err)
	}
	state := hex.EncodeToString(buf)

	http.HandleFunc("/oauth2callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		token, err := auth.ExchangeCode(context.Background(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		fmt.Printf("\nGMAIL_REFRESH_TOKEN=%s\n\n", token.RefreshToken)
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		os.Exit(0)
	})

	fmt.Printf("Open this URL in your browser:\n%s\n", auth.GenerateAuthURL(state))
	log.Fatal(http.ListenAndServe(addr, nil))
}
