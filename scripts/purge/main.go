package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	httpmiddleware "github.com/wolfman30/clinic-growth-platform/internal/http/middleware"
)

// Deletes one patient (and, through the schema, their appointments,
// campaign history and retention schedules) via the admin API.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run ./scripts/purge <admin_user_id> <patient_id>")
		fmt.Println("Example: go run ./scripts/purge 0b8f1c2e-5a7d-4c1e-9f3a-2d6b8e4a1c90 7d1e3f5a-9b2c-4e6d-8a0f-1c3e5b7d9f2a")
		os.Exit(1)
	}

	userID := os.Args[1]
	patientID := os.Args[2]

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		fmt.Println("Error: ADMIN_JWT_SECRET environment variable not set")
		os.Exit(1)
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	tokenString, err := httpmiddleware.SignAdminToken(secret, userID, "", time.Hour, time.Now())
	if err != nil {
		fmt.Printf("Error signing token: %v\n", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("%s/api/admin/patients/%s", apiURL, patientID)
	fmt.Printf("Purging patient %s...\n", patientID)
	fmt.Printf("URL: %s\n", url)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Authorization", "Bearer "+tokenString)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		fmt.Printf("Error: HTTP %d\n", resp.StatusCode)
		fmt.Printf("Response: %s\n", string(body))
		os.Exit(1)
	}
	fmt.Println("Patient purged")
}
