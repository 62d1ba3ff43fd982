// cmd/tools/dev-token/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"onboarding-service/internal/common/auth"
	"onboarding-service/internal/common/config"

	"github.com/google/uuid"
)

func main() {
	issueCmd := flag.NewFlagSet("issue", flag.ExitOnError)
	verifyCmd := flag.NewFlagSet("verify", flag.ExitOnError)

	// Issue command flags
	email := issueCmd.String("email", "", "Applicant email placed in the email claim")
	subject := issueCmd.String("subject", "", "Token subject (defaults to a random UUID)")
	ttl := issueCmd.Duration("ttl", 24*time.Hour, "Token lifetime")

	// Verify command flags
	token := verifyCmd.String("token", "", "Bearer token to verify")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "issue":
		issueCmd.Parse(os.Args[2:])
		if strings.TrimSpace(*email) == "" {
			fmt.Println("Error: email is required for issue.")
			issueCmd.Usage()
			os.Exit(1)
		}
		if *subject == "" {
			*subject = uuid.New().String()
		}
		signed, err := auth.IssueToken(cfg.Auth, *subject, *email, *ttl)
		if err != nil {
			fmt.Printf("Error issuing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(signed)

	case "verify":
		verifyCmd.Parse(os.Args[2:])
		if *token == "" {
			fmt.Println("Error: token is required for verify.")
			verifyCmd.Usage()
			os.Exit(1)
		}
		id, err := auth.NewVerifier(cfg.Auth).Verify(*token)
		if err != nil {
			fmt.Printf("Token rejected: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Token valid for %s\n", id.UserEmail)

	default:
		help()
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: dev-token <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  issue   Sign a development bearer token for an applicant")
	fmt.Println("  verify  Check a bearer token against the configured secret")
}
